package brand

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// SynthesizedCategoryCount and SynthesizedQuestionCount hold only for
	// freshly synthesized sets; curation may change both.
	SynthesizedCategoryCount = 10
	SynthesizedQuestionCount = 5
)

// Category is a named, ordered group of research questions. Questions are
// identified only by their position.
type Category struct {
	Name      string   `json:"name" validate:"required"`
	Questions []string `json:"questions" validate:"required"`
}

// PromptSet is the ordered list of categories generated for one brand.
type PromptSet struct {
	Categories []Category `json:"categories" validate:"required,dive"`
}

var (
	validate     = validator.New(validator.WithRequiredStructEnabled())
	indexPattern = regexp.MustCompile(`\[(\d+)\]`)
)

// Clone returns a deep copy that shares no slices with ps.
func (ps PromptSet) Clone() PromptSet {
	if ps.Categories == nil {
		return PromptSet{}
	}
	out := PromptSet{Categories: make([]Category, len(ps.Categories))}
	for i, c := range ps.Categories {
		qs := make([]string, len(c.Questions))
		copy(qs, c.Questions)
		out.Categories[i] = Category{Name: c.Name, Questions: qs}
	}
	return out
}

// QuestionCount is the total number of questions across categories.
func (ps PromptSet) QuestionCount() int {
	n := 0
	for _, c := range ps.Categories {
		n += len(c.Questions)
	}
	return n
}

// ValidateShape checks structure only: categories is a list, each category
// has a non-blank name and a questions list. Cardinality is not checked.
func ValidateShape(ps PromptSet) error {
	const op = "brand.ValidateShape"
	if ps.Categories == nil {
		return Validation(op, "invalid prompt data structure: expected categories array")
	}
	if err := validate.Struct(ps); err != nil {
		return validationFromFieldErrors(op, err)
	}
	for i, c := range ps.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return Validation(op, fmt.Sprintf("category %d must have a valid name", i))
		}
	}
	return nil
}

// ValidateSynthesized checks the exact synthesis shape: 10 categories of 5
// non-blank questions each.
func ValidateSynthesized(ps PromptSet) error {
	const op = "brand.ValidateSynthesized"
	if err := ValidateShape(ps); err != nil {
		return err
	}
	if err := validate.Var(ps.Categories, "len="+strconv.Itoa(SynthesizedCategoryCount)); err != nil {
		return Validation(op, fmt.Sprintf("expected %d categories, got %d", SynthesizedCategoryCount, len(ps.Categories)))
	}
	for i, c := range ps.Categories {
		if err := validate.Var(c.Questions, "len="+strconv.Itoa(SynthesizedQuestionCount)+",dive,required"); err != nil {
			return Validation(op, fmt.Sprintf("category %d (%s) must have %d non-empty questions", i, c.Name, SynthesizedQuestionCount))
		}
		for j, q := range c.Questions {
			if strings.TrimSpace(q) == "" {
				return Validation(op, fmt.Sprintf("category %d question %d is blank", i, j))
			}
		}
	}
	return nil
}

func validationFromFieldErrors(op string, err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return Validation(op, err.Error())
	}
	fe := fieldErrs[0]
	idx := "?"
	if m := indexPattern.FindStringSubmatch(fe.Namespace()); len(m) == 2 {
		idx = m[1]
	}
	switch fe.StructField() {
	case "Name":
		return Validation(op, "category "+idx+" must have a valid name")
	case "Questions":
		return Validation(op, "category "+idx+" must have a questions array")
	default:
		return Validation(op, "invalid prompt data structure: expected categories array")
	}
}
