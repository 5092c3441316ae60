package hunt

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an exported symbol.
type Category string

const (
	CategoryComponent Category = "Component"
	CategoryHook      Category = "Hook"
	CategoryFunction  Category = "Function"
	CategoryType      Category = "Type"
)

// AllCategories lists every category in presentation order.
var AllCategories = []Category{CategoryComponent, CategoryHook, CategoryFunction, CategoryType}

// ErrNoCategories is returned when a hunt is configured without any category.
var ErrNoCategories = errors.New("at least one category must be selected")

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Categorize maps a declared value name to a category by naming convention:
// a "use" prefix is a hook, a leading uppercase ASCII letter is a component,
// anything else is a plain function. Type-level declarations never go through
// here; they are always CategoryType.
func Categorize(name string) Category {
	if strings.HasPrefix(name, "use") {
		return CategoryHook
	}
	if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
		return CategoryComponent
	}
	return CategoryFunction
}

// ParseCategory converts user input such as "hook", "Hooks" or "types" to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "component", "components":
		return CategoryComponent, nil
	case "hook", "hooks":
		return CategoryHook, nil
	case "function", "functions", "func", "util", "utils":
		return CategoryFunction, nil
	case "type", "types":
		return CategoryType, nil
	default:
		return "", fmt.Errorf("unknown category %q (want component, hook, function or type)", s)
	}
}

// CategorySet is a set of categories.
type CategorySet uint8

func categoryBit(c Category) CategorySet {
	switch c {
	case CategoryComponent:
		return 1 << 0
	case CategoryHook:
		return 1 << 1
	case CategoryFunction:
		return 1 << 2
	case CategoryType:
		return 1 << 3
	default:
		return 0
	}
}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(categories ...Category) CategorySet {
	var s CategorySet
	for _, c := range categories {
		s |= categoryBit(c)
	}
	return s
}

// AllCategorySet returns the set containing every category.
func AllCategorySet() CategorySet {
	return NewCategorySet(AllCategories...)
}

// ParseCategorySet parses a list of category names. An empty result is an error.
func ParseCategorySet(names []string) (CategorySet, error) {
	var s CategorySet
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := ParseCategory(part)
			if err != nil {
				return 0, err
			}
			s |= categoryBit(c)
		}
	}
	if s.Empty() {
		return 0, ErrNoCategories
	}
	return s, nil
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	bit := categoryBit(c)
	return bit != 0 && s&bit != 0
}

// Empty reports whether the set has no members.
func (s CategorySet) Empty() bool {
	return s == 0
}

// Categories returns the members in presentation order.
func (s CategorySet) Categories() []Category {
	var out []Category
	for _, c := range AllCategories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns the member names in presentation order.
func (s CategorySet) Strings() []string {
	cats := s.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func (s CategorySet) String() string {
	return strings.Join(s.Strings(), ",")
}
