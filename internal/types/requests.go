package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pageza/recipe-api/backend/internal/model"
)

// RecipeRequest is the request body accepted by POST, PUT and PATCH on
// /recipes. Pointer fields distinguish an absent field from an empty one.
// Any "id" in the payload is ignored.
type RecipeRequest struct {
	Name        *string             `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string             `json:"description"`
	Ingredients []IngredientPayload `json:"ingredients" validate:"dive"`

	// nulls lists the fields sent as an explicit JSON null.
	nulls []string
}

// UnmarshalJSON decodes the request and records which fields were null.
func (r *RecipeRequest) UnmarshalJSON(data []byte) error {
	type plain RecipeRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	nulls, err := nullFields(data, "name", "description", "ingredients")
	if err != nil {
		return err
	}
	*r = RecipeRequest(p)
	r.nulls = nulls
	return nil
}

// IngredientPayload is one entry of a recipe's ingredients list.
type IngredientPayload struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`

	null  bool
	nulls []string
}

// UnmarshalJSON decodes one ingredient entry, recording a null entry or a
// null name.
func (p *IngredientPayload) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*p = IngredientPayload{null: true}
		return nil
	}
	type plain IngredientPayload
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	nulls, err := nullFields(data, "name")
	if err != nil {
		return err
	}
	*p = IngredientPayload(v)
	p.nulls = nulls
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// nullFields reports which of fields appear in the object with a null
// value. Keys match case-insensitively, as encoding/json does.
func nullFields(data []byte, fields ...string) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var nulls []string
	for key, value := range raw {
		if !isNull(value) {
			continue
		}
		for _, field := range fields {
			if strings.EqualFold(key, field) {
				nulls = append(nulls, field)
			}
		}
	}
	return nulls, nil
}

// Normalize trims surrounding whitespace from every text field.
func (r *RecipeRequest) Normalize() {
	trim(r.Name)
	trim(r.Description)
	for i := range r.Ingredients {
		trim(r.Ingredients[i].Name)
	}
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// ToModel builds a new recipe from a validated create request.
func (r RecipeRequest) ToModel() *model.Recipe {
	recipe := &model.Recipe{
		Ingredients: []model.Ingredient{},
	}
	if r.Name != nil {
		recipe.Name = *r.Name
	}
	if r.Description != nil {
		recipe.Description = *r.Description
	}
	for _, name := range r.ingredientNames() {
		recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{Name: name})
	}
	return recipe
}

// ToChanges converts a validated update request into the set of fields to
// apply. A present ingredients list, even an empty one, replaces the
// recipe's ingredients.
func (r RecipeRequest) ToChanges() model.RecipeChanges {
	changes := model.RecipeChanges{
		Name:        r.Name,
		Description: r.Description,
	}
	if r.Ingredients != nil {
		names := r.ingredientNames()
		changes.Ingredients = &names
	}
	return changes
}

func (r RecipeRequest) ingredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Name != nil {
			names = append(names, *ing.Name)
		}
	}
	return names
}
