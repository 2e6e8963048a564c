package a2a

import "github.com/Strob0t/TwinForge/internal/expert"

// SkillComprehensive routes a task to every expert.
const SkillComprehensive = "comprehensive_analysis"

// BuildAgentCard describes the service at baseURL. Each registered expert
// contributes one skill whose ID is its expertise, which doubles as the
// request type of tasks created for that skill.
func BuildAgentCard(baseURL, version string, reg *expert.Registry) AgentCard {
	modes := []string{ModeText, ModeJSON}
	var skills []Skill
	for _, a := range reg.Agents() {
		skills = append(skills, Skill{
			ID:          a.Expertise(),
			Name:        a.Name(),
			Description: "Expert analysis by " + a.Name(),
			Tags:        []string{a.Expertise()},
			InputModes:  modes,
			OutputModes: modes,
		})
	}
	skills = append(skills, Skill{
		ID:          SkillComprehensive,
		Name:        "Comprehensive Analysis",
		Description: "Analysis by every expert, synthesized and quality scored",
		Tags:        []string{"comprehensive"},
		InputModes:  modes,
		OutputModes: modes,
	})

	return AgentCard{
		Name:               "TwinForge",
		Description:        "Multi-expert analysis with quality-gated publication",
		URL:                baseURL,
		Version:            version,
		DefaultInputModes:  modes,
		DefaultOutputModes: modes,
		Capabilities:       Capabilities{Streaming: true},
		Skills:             skills,
	}
}
