package vocab

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the curated term lists used for extraction.
type Lexicon struct {
	// Skills are matched as whole words, case-insensitively.
	Skills []string `yaml:"skills" mapstructure:"skills"`
	// Keywords restrict extracted keywords when non-empty.
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
	// Exclusions are never reported as keywords.
	Exclusions []string `yaml:"exclusions" mapstructure:"exclusions"`
}

// DefaultLexicon returns the built-in engineering and software lexicon. Its keyword
// list is empty, so keywords are filtered by exclusions only.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Skills: []string{
			"CAD", "SolidWorks", "AutoCAD", "Inventor", "Fusion 360", "CATIA", "ANSYS", "FEA", "CFD",
			"Fluent", "MATLAB", "Simulink", "Python", "R", "C++", "GD&T", "DFM", "Lean Manufacturing",
			"Six Sigma", "Prototyping", "3D Printing", "CNC Machining", "Robotics", "Thermodynamics",
			"Fluid Mechanics", "Heat Transfer", "Materials Science", "Finite Element Analysis",
			"Design", "Stress Analysis", "Kinematics", "Dynamics", "Mechatronics", "Control Systems",
			"Jigs & Fixtures", "Manufacturing", "Assembly", "Solid Modeling", "Mechanical Design",
			"Tolerance Analysis", "Failure Analysis", "Root Cause Analysis", "FMEA", "P&ID",
			"Java", "JavaScript", "TypeScript", "Golang", "SQL", "PostgreSQL", "Docker", "Kubernetes",
			"AWS", "Linux", "Git", "Machine Learning", "Deep Learning", "Data Analysis", "TensorFlow",
			"PyTorch", "Pandas", "NumPy", "Scikit-learn",
		},
		Exclusions: []string{
			"project", "projects", "team", "teams", "work", "year", "years", "email", "phone",
			"location", "education", "experience", "college", "univ", "university", "linkedin",
			"github", "languages", "language", "degree", "skill", "skills", "profile", "field",
			"area", "tool", "tools", "task", "tasks", "support", "method", "information", "office",
			"order", "reference", "references", "summary", "objective", "responsibility",
			"requirement", "jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "sept",
			"oct", "nov", "dec", "january", "february", "march", "april", "june", "july", "august",
			"september", "october", "november", "december",
		},
	}
}

// LoadLexicon reads a YAML lexicon file.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("reading lexicon %q: %w", path, err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parsing lexicon %q: %w", path, err)
	}

	return lex, nil
}

// Merge returns the union of both lexicons, keeping the first spelling of each
// term and dropping blanks.
func (l Lexicon) Merge(other Lexicon) Lexicon {
	return Lexicon{
		Skills:     union(l.Skills, other.Skills),
		Keywords:   union(l.Keywords, other.Keywords),
		Exclusions: union(l.Exclusions, other.Exclusions),
	}
}

// Without returns l minus every term listed in other, compared case-insensitively.
func (l Lexicon) Without(other Lexicon) Lexicon {
	return Lexicon{
		Skills:     subtract(l.Skills, other.Skills),
		Keywords:   subtract(l.Keywords, other.Keywords),
		Exclusions: subtract(l.Exclusions, other.Exclusions),
	}
}

func subtract(list, drop []string) []string {
	if len(drop) == 0 {
		return list
	}

	gone := make(map[string]struct{}, len(drop))
	for _, term := range drop {
		gone[strings.ToLower(strings.TrimSpace(term))] = struct{}{}
	}

	var out []string
	for _, term := range list {
		if _, ok := gone[strings.ToLower(strings.TrimSpace(term))]; ok {
			continue
		}
		out = append(out, term)
	}
	return out
}

func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, term := range list {
			term = strings.TrimSpace(term)
			key := strings.ToLower(term)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}
