package hunt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	reg := NewRegistry(AllCategorySet())
	reg.Register(Declaration{Name: "Button", Category: CategoryComponent, Line: 1}, "a.tsx")
	reg.Register(Declaration{Name: "useAuth", Category: CategoryHook, Line: 2}, "a.tsx")
	reg.Register(Declaration{Name: "Props", Category: CategoryType, Line: 3}, "a.tsx")
	reg.MarkUsed("useAuth", "b.tsx", 0)

	report := Assemble(reg, AllCategorySet())

	assert.Equal(t, []Entry{
		{Category: CategoryComponent, Name: "Button", File: "a.tsx", Line: 1},
		{Category: CategoryType, Name: "Props", File: "a.tsx", Line: 3},
	}, report.Entries)
	require.Len(t, report.Used, 1)
	assert.Equal(t, uint64(1), report.Used[0].References)

	assert.Equal(t, 3, report.Summary.TotalExports)
	assert.Equal(t, 2, report.Summary.Unused)
	assert.Equal(t, 1, report.Summary.ByCategory[string(CategoryType)])
	assert.Equal(t, 0, report.Summary.ByCategory[string(CategoryHook)])
}

func TestAssembleFiltersCategories(t *testing.T) {
	reg := NewRegistry(AllCategorySet())
	reg.Register(Declaration{Name: "Button", Category: CategoryComponent}, "a.tsx")
	reg.Register(Declaration{Name: "helper", Category: CategoryFunction}, "a.tsx")

	report := Assemble(reg, NewCategorySet(CategoryFunction))
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "helper", report.Entries[0].Name)
}

func TestAssembleEmpty(t *testing.T) {
	report := Assemble(NewRegistry(AllCategorySet()), AllCategorySet())
	assert.True(t, report.Clean())
	assert.Empty(t, report.Entries)

	assert.True(t, Assemble(nil, AllCategorySet()).Clean())

	var nilReport *Report
	assert.True(t, nilReport.Clean())
}

func TestEntriesByCategory(t *testing.T) {
	report := &Report{Entries: []Entry{
		{Category: CategoryHook, Name: "useA"},
		{Category: CategoryType, Name: "T"},
		{Category: CategoryHook, Name: "useB"},
	}}

	groups := report.EntriesByCategory()
	require.Len(t, groups[CategoryHook], 2)
	assert.Equal(t, "useB", groups[CategoryHook][1].Name)
	assert.Len(t, groups[CategoryType], 1)
}
