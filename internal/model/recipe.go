package model

import (
	"time"
)

// Recipe is the top-level resource. It owns its Ingredients; deleting a
// recipe deletes them too.
type Recipe struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	Ingredients []Ingredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (r Recipe) String() string {
	return r.Name
}

// Ingredient is one named component of a Recipe.
type Ingredient struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	RecipeID uint   `gorm:"not null;index" json:"recipe_id"`
}

// IngredientNames returns the ingredient names in stored order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// RecipeChanges carries the fields supplied by an update. A nil field was
// absent from the request and is left untouched.
type RecipeChanges struct {
	Name        *string
	Description *string
	Ingredients *[]string
}

// IsEmpty reports whether no field was supplied.
func (c RecipeChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Ingredients == nil
}
