package prompt

import "strings"

// Config describes a prompt definition loaded from YAML.
type Config struct {
	Slug           string    `yaml:"slug" json:"slug"`
	Name           string    `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string    `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string    `yaml:"version,omitempty" json:"version,omitempty"`
	Input          InputSpec `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string    `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	UserTemplate   string    `yaml:"user_template,omitempty" json:"user_template,omitempty"`
	JSONResponse   bool      `yaml:"json_response,omitempty" json:"json_response,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}

// Render substitutes {{key}} placeholders in the system and user templates.
// Missing required variables return an error; user template defaults to
// {{input}} when empty.
func (p *Prompt) Render(vars map[string]string) (system string, user string, err error) {
	if p == nil {
		return "", "", errPromptRequired
	}
	for _, required := range p.Config.Input.RequiredVariables {
		if strings.TrimSpace(vars[required]) == "" {
			return "", "", &MissingVariableError{Slug: p.Config.Slug, Variable: required}
		}
	}

	system = applyVars(p.Config.SystemTemplate, vars)
	userTemplate := p.Config.UserTemplate
	if userTemplate == "" {
		userTemplate = "{{input}}"
	}
	user = applyVars(userTemplate, vars)

	if strings.TrimSpace(system) == "" {
		return "", "", errSystemRequired
	}
	return system, user, nil
}

func applyVars(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
