package main

// Provider blank imports. Each import activates a self-registering
// notifier adapter.

import (
	_ "github.com/Strob0t/TwinForge/internal/adapter/discord"
	_ "github.com/Strob0t/TwinForge/internal/adapter/slack"
)
