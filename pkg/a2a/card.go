package a2a

// AgentCapabilities describes optional protocol features the agent supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming" yaml:"streaming"`
	PushNotifications bool `json:"pushNotifications,omitempty" yaml:"push_notifications,omitempty"`
}

// AgentSkill is one advertised skill on the agent card.
type AgentSkill struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// AgentCard is the discovery document served at /.well-known/agent.json.
type AgentCard struct {
	Name               string            `json:"name" yaml:"name"`
	Description        string            `json:"description,omitempty" yaml:"description,omitempty"`
	URL                string            `json:"url" yaml:"url"`
	Version            string            `json:"version" yaml:"version"`
	Capabilities       AgentCapabilities `json:"capabilities" yaml:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty" yaml:"default_input_modes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty" yaml:"default_output_modes,omitempty"`
	Skills             []AgentSkill      `json:"skills,omitempty" yaml:"skills,omitempty"`
}
