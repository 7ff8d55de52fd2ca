package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pageza/recipe-api/backend/internal/model"
	"github.com/pageza/recipe-api/backend/internal/service"
)

type sampleRecipe struct {
	name        string
	description string
	ingredients []string
}

var sampleRecipes = []sampleRecipe{
	{"Breakfast", "Eggs + Toast", []string{"Eggs", "Toast", "Butter"}},
	{"Pasta Carbonara", "Roman pasta with egg and cured pork", []string{"Spaghetti", "Guanciale", "Eggs", "Pecorino Romano", "Black pepper"}},
	{"Greek Salad", "Tomatoes, cucumber and feta", []string{"Tomatoes", "Cucumber", "Red onion", "Feta", "Olives", "Olive oil"}},
	{"Banana Smoothie", "Quick protein breakfast", []string{"Banana", "Milk", "Peanut butter", "Oats"}},
	{"Chicken Curry", "Mild curry with coconut milk", []string{"Chicken thighs", "Onion", "Garlic", "Curry paste", "Coconut milk"}},
	{"Guacamole", "", []string{"Avocados", "Lime", "Cilantro", "Salt"}},
	{"Miso Soup", "Japanese soup with tofu", []string{"Dashi", "Miso paste", "Tofu", "Spring onion"}},
	{"Toast", "", nil},
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample recipes that do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := seedRecipes(cmd.Context(), a.recipeService(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d recipes\n", created)
			return nil
		},
	}
}

// seedRecipes creates every sample recipe whose name is not already taken.
func seedRecipes(ctx context.Context, svc service.IRecipeService, out io.Writer) (int, error) {
	created := 0
	for _, sample := range sampleRecipes {
		exists, err := recipeExists(ctx, svc, sample.name)
		if err != nil {
			return created, err
		}
		if exists {
			fmt.Fprintf(out, "skipping %q (exists)\n", sample.name)
			continue
		}

		recipe := &model.Recipe{Name: sample.name, Description: sample.description}
		for _, name := range sample.ingredients {
			recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{Name: name})
		}
		saved, err := svc.CreateRecipe(ctx, recipe)
		if err != nil {
			return created, fmt.Errorf("failed to seed %q: %w", sample.name, err)
		}
		fmt.Fprintf(out, "created %q (id %d, %d ingredients)\n", saved.Name, saved.ID, len(saved.Ingredients))
		created++
	}
	return created, nil
}

func recipeExists(ctx context.Context, svc service.IRecipeService, name string) (bool, error) {
	matches, err := svc.ListRecipes(ctx, service.RecipeFilter{NamePrefix: name})
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if strings.EqualFold(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
