package script

import (
	"fmt"
	"strconv"
)

// Parameter types understood by the server.
const (
	TypeText = "text"
	TypeInt  = "int"
	TypeList = "list"
	TypeFlag = "flag"
)

// Parameter is one declared script parameter, as described by the server.
type Parameter struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Default     string   `json:"default,omitempty"`
	Values      []string `json:"values,omitempty"` // allowed values for list parameters
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Secure      bool     `json:"secure,omitempty"` // value is masked in logs and UI
}

// Script is the configuration descriptor of one server-side script.
type Script struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// FindParameter returns the declared parameter with the given name, or nil.
func (s *Script) FindParameter(name string) *Parameter {
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			return &s.Parameters[i]
		}
	}
	return nil
}

// DefaultValues returns the declared default for every parameter that has one.
func (s *Script) DefaultValues() map[string]string {
	values := make(map[string]string)
	for _, p := range s.Parameters {
		if p.Default != "" {
			values[p.Name] = p.Default
		}
	}
	return values
}

// ValidateValues checks a name→value mapping against the declared parameters.
// Unknown names are rejected so typos don't silently vanish server-side.
func (s *Script) ValidateValues(values map[string]string) error {
	for name := range values {
		if s.FindParameter(name) == nil {
			return fmt.Errorf("unknown parameter %q for script %q", name, s.Name)
		}
	}

	for _, p := range s.Parameters {
		value, ok := values[p.Name]
		if !ok || value == "" {
			if p.Required {
				return fmt.Errorf("parameter %q is required", p.Name)
			}
			continue
		}
		if err := p.validate(value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parameter) validate(value string) error {
	switch p.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parameter %q: %q is not an integer", p.Name, value)
		}
		if p.Min != nil && n < *p.Min {
			return fmt.Errorf("parameter %q: %d is less than minimum %d", p.Name, n, *p.Min)
		}
		if p.Max != nil && n > *p.Max {
			return fmt.Errorf("parameter %q: %d is greater than maximum %d", p.Name, n, *p.Max)
		}

	case TypeList:
		for _, allowed := range p.Values {
			if value == allowed {
				return nil
			}
		}
		return fmt.Errorf("parameter %q: %q is not one of the allowed values", p.Name, value)

	case TypeFlag:
		if value != "true" && value != "false" {
			return fmt.Errorf("parameter %q: %q is not a boolean flag", p.Name, value)
		}
	}
	return nil
}
