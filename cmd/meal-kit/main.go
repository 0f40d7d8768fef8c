package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"meal-kit/internal/app"
	"meal-kit/internal/config"
	"meal-kit/internal/logger"
	"meal-kit/internal/planner"
	"meal-kit/internal/recipe"
	"meal-kit/internal/storage"
)

const (
	demoEmail   = "demo@meal-kit.local"
	demoAddress = "12 rue des Lilas, 75020 Paris"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	if err := run(ctx, application, log, os.Args[1], os.Args[2:]); err != nil {
		log.Errorf("%s failed: %v", os.Args[1], err)
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, log logrus.FieldLogger, cmd string, args []string) error {
	switch cmd {
	case "seed":
		n, err := recipe.Seed(ctx, a.Catalog)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d recipes (%d in catalog).\n", n, a.Catalog.Len())
	case "recipes":
		printRecipes(a.Catalog.List())
	case "plan-demo":
		week, err := buildDemoPlan(ctx, a)
		if err != nil {
			return err
		}
		return printWeek(ctx, a, week)
	case "checkout-demo":
		return checkoutDemo(ctx, a)
	case "creator-stats":
		fs := flag.NewFlagSet("creator-stats", flag.ExitOnError)
		email := fs.String("email", demoEmail, "Sign in as this user when nobody is")
		fs.Parse(args)
		if _, err := a.EnsureUser(ctx, *email); err != nil {
			return err
		}
		st, err := a.CreatorStats()
		if err != nil {
			return err
		}
		fmt.Printf("Recipes: %d  Orders: %d  Reviews: %d (avg %.1f)\n", st.RecipesCount, st.OrdersCount, st.ReviewsCount, st.AverageRating)
		fmt.Printf("Earnings: %.4f €  This month: %.4f €  Last month: %.4f €  Growth: %.1f%%\n",
			st.Earnings, st.CurrentMonthEarnings, st.PreviousMonthEarnings, st.GrowthPercent)
		for _, r := range st.Recipes {
			fmt.Printf("  • %s: %d orders, %d kits, %.4f €\n", r.Title, r.Orders, r.Quantity, r.Earnings)
		}
	case "import":
		if len(args) != 1 {
			return fmt.Errorf("usage: meal-kit import <url>")
		}
		if _, err := a.EnsureUser(ctx, demoEmail); err != nil {
			return err
		}
		r, err := a.ImportRecipe(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %q as %s.\n", r.Title, r.ID)
	case "ingest":
		rep, err := a.IngestRecipes(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Fetched %d posts: %d imported, %d up-to-date, %d failed.\n", rep.Fetched, rep.Imported, rep.Skipped, rep.Failed)
	case "export", "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: meal-kit %s <dir>", cmd)
		}
		archive, err := storage.NewRecipeStore(args[0])
		if err != nil {
			return err
		}
		if cmd == "export" {
			return exportRecipes(a, archive)
		}
		return loadRecipes(ctx, a, archive, log)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		affected, err := a.CleanupMetrics(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// buildDemoPlan fills the current week with the starter recipes.
func buildDemoPlan(ctx context.Context, a *app.App) (time.Time, error) {
	if _, err := recipe.Seed(ctx, a.Catalog); err != nil {
		return time.Time{}, err
	}
	if _, err := a.EnsureUser(ctx, demoEmail); err != nil {
		return time.Time{}, err
	}

	week := planner.WeekStart(time.Now())
	slots := []struct {
		day    int
		meal   planner.MealType
		recipe string
	}{
		{0, planner.Breakfast, "porridge-fruits-rouges"},
		{0, planner.Dinner, "poulet-basquaise"},
		{1, planner.Lunch, "salade-nicoise"},
		{2, planner.Dinner, "risotto-champignons"},
		{3, planner.Dinner, "saumon-papillote"},
	}
	for _, s := range slots {
		r, err := a.Catalog.Get(s.recipe)
		if err != nil {
			return time.Time{}, err
		}
		if err := a.Plan.AddRecipeToSlot(week.AddDate(0, 0, s.day), s.meal, r); err != nil {
			return time.Time{}, err
		}
	}
	if _, err := a.SavePlan(ctx, week); err != nil {
		return time.Time{}, err
	}
	return week, nil
}

func printWeek(ctx context.Context, a *app.App, week time.Time) error {
	plan := a.Plan.Snapshot()
	fmt.Printf("Week of %s\n", planner.DateKey(week))
	for _, day := range plan.Days() {
		for _, m := range planner.MealTypes {
			if r := plan[day].Get(m); r != nil {
				fmt.Printf("  %s %-9s %s\n", day, m, r.Title)
			}
		}
	}

	s := a.Stats(week)
	fmt.Printf("\nNutrition: score %s, %d recipes, %d min\n", s.NutritionScore, s.TotalRecipes, s.TotalPrepTime)
	fmt.Printf("  calories %.0f (%s)  proteins %.0fg (%s)  carbs %.0fg (%s)  fats %.0fg (%s)\n",
		s.Calories, s.Trends.Calories, s.Proteins, s.Trends.Proteins, s.Carbs, s.Trends.Carbs, s.Fats, s.Trends.Fats)

	list, err := a.ShoppingList(ctx, week)
	if err != nil {
		return err
	}
	fmt.Printf("\nShopping list (%d items, %.2f €)\n", list.ItemCount(), list.Total)
	for _, c := range list.Categories {
		fmt.Printf("  %s\n", c.Name)
		for _, it := range c.Items {
			fmt.Printf("    %-22s %6.2f %s\n", it.Name, it.Quantity, it.Unit)
		}
	}
	return nil
}

func checkoutDemo(ctx context.Context, a *app.App) error {
	if _, err := a.EnsureUser(ctx, demoEmail); err != nil {
		return err
	}
	week := planner.WeekStart(time.Now())
	found, err := a.RestorePlan(ctx, week)
	if err != nil {
		return err
	}
	if !found {
		if _, err := buildDemoPlan(ctx, a); err != nil {
			return err
		}
	}

	n, err := a.AddPlanToCart(ctx, week)
	if err != nil {
		return err
	}
	fmt.Printf("Added %d kits to the cart (%.2f €).\n", n, a.Cart.Total())

	o, err := a.Checkout(ctx, demoAddress, "card")
	if err != nil {
		return err
	}
	u, _ := a.CurrentUser()
	fmt.Printf("Order %s: %d lines, %.2f €, %s, delivered to %s\n", o.ID, len(o.Items), o.Total, o.Status, o.DeliveryAddress)
	fmt.Printf("Loyalty balance: %d points\n", a.Loyalty.Balance(u.ID))
	return nil
}

func printRecipes(recipes []recipe.Recipe) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tDURATION\tPRICE\tKCAL")
	for _, r := range recipes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.0f\n", r.ID, r.Title, r.Category, r.Duration, r.Price, r.Nutrition.Calories)
	}
	w.Flush()
}

func exportRecipes(a *app.App, archive *storage.RecipeStore) error {
	recipes := a.Catalog.List()
	for _, r := range recipes {
		if err := archive.Save(r); err != nil {
			return err
		}
	}
	fmt.Printf("Exported %d recipes.\n", len(recipes))
	return nil
}

func loadRecipes(ctx context.Context, a *app.App, archive *storage.RecipeStore, log logrus.FieldLogger) error {
	recipes, err := archive.LoadAll()
	if err != nil {
		return err
	}
	loaded := 0
	for _, r := range recipes {
		if _, err := a.Catalog.Add(ctx, r); err != nil {
			if errors.Is(err, recipe.ErrInvalidRecipe) {
				log.Warnf("skipping %s: %v", r.ID, err)
				continue
			}
			return err
		}
		loaded++
	}
	fmt.Printf("Loaded %d of %d recipes.\n", loaded, len(recipes))
	return nil
}

func printUsage() {
	fmt.Println("Usage: meal-kit <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  seed               Add the starter recipes to the catalog")
	fmt.Println("  recipes            List the catalog")
	fmt.Println("  plan-demo          Plan this week and print stats and shopping list")
	fmt.Println("  checkout-demo      Order this week's plan")
	fmt.Println("  creator-stats      Show earnings of the signed-in user's recipes")
	fmt.Println("  import <url>       Clip a recipe from a web page")
	fmt.Println("  ingest             Fetch and extract recipes from Ghost")
	fmt.Println("  export <dir>       Write the catalog as JSON files")
	fmt.Println("  load <dir>         Add JSON recipe files to the catalog")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
