package agentcfg

// PersonaConfig mirrors the Persona entity of spec §3: a Big-Five vector, a
// social-style descriptor, and a thinking-style descriptor. All three are
// plain value records — they travel into prompt text and storage rows, never
// as live objects with behavior (spec §9 design note).
type PersonaConfig struct {
	BigFive     BigFiveVector `yaml:"big_five,omitempty"`
	SocialStyle SocialStyle   `yaml:"social_style,omitempty"`
	Thinking    ThinkingStyle `yaml:"thinking,omitempty"`
}

// BigFiveVector holds the five OCEAN scalars, each in [0,1]. The zero value
// is a valid, meaningful persona (all traits at baseline), per the spec's
// invariant that the vector is always present even if all-zero.
type BigFiveVector struct {
	Openness          float64 `yaml:"openness"`
	Conscientiousness float64 `yaml:"conscientiousness"`
	Extraversion      float64 `yaml:"extraversion"`
	Agreeableness     float64 `yaml:"agreeableness"`
	Neuroticism       float64 `yaml:"neuroticism"`
}

// Clamp bounds every scalar into [0,1].
func (v *BigFiveVector) Clamp() {
	v.Openness = clamp01(v.Openness)
	v.Conscientiousness = clamp01(v.Conscientiousness)
	v.Extraversion = clamp01(v.Extraversion)
	v.Agreeableness = clamp01(v.Agreeableness)
	v.Neuroticism = clamp01(v.Neuroticism)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SocialStyle is a two-scalar descriptor (assertiveness, responsiveness)
// plus a derived label (e.g. "driver", "expressive", "amiable", "analytical"
// in the classic social-styles model).
type SocialStyle struct {
	Assertiveness float64 `yaml:"assertiveness"`
	Responsiveness float64 `yaml:"responsiveness"`
}

// Label derives the classic four-quadrant social-style name from the two
// scalars, splitting each axis at its midpoint.
func (s SocialStyle) Label() string {
	assertive := s.Assertiveness >= 0.5
	responsive := s.Responsiveness >= 0.5
	switch {
	case assertive && !responsive:
		return "driver"
	case assertive && responsive:
		return "expressive"
	case !assertive && responsive:
		return "amiable"
	default:
		return "analytical"
	}
}

// ThinkingStyle is a primary/secondary classification plus free text, e.g.
// primary="analytical", secondary="creative", notes="prefers worked examples".
type ThinkingStyle struct {
	Primary   string `yaml:"primary,omitempty"`
	Secondary string `yaml:"secondary,omitempty"`
	Notes     string `yaml:"notes,omitempty"`
}

func (c *PersonaConfig) SetDefaults() {
	c.BigFive.Clamp()
}

// IdentityConfig mirrors the Identity entity of spec §3: display name, role
// tag, and optional job/org/avatar fields. Mutated independently of Persona.
type IdentityConfig struct {
	DisplayName  string `yaml:"display_name"`
	Role         string `yaml:"role,omitempty"`
	JobTitle     string `yaml:"job_title,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	AvatarURL    string `yaml:"avatar_url,omitempty"`
}
