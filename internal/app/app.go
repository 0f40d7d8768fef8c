package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"meal-kit/internal/cart"
	"meal-kit/internal/clipper"
	"meal-kit/internal/config"
	"meal-kit/internal/creator"
	"meal-kit/internal/database"
	"meal-kit/internal/ghost"
	"meal-kit/internal/identity"
	"meal-kit/internal/latency"
	"meal-kit/internal/llm"
	"meal-kit/internal/localstore"
	"meal-kit/internal/loyalty"
	"meal-kit/internal/metrics"
	"meal-kit/internal/order"
	"meal-kit/internal/planner"
	"meal-kit/internal/recipe"
	"meal-kit/internal/shopping"
)

var (
	ErrExtractionDisabled = errors.New("recipe extraction is not configured")
	ErrIngestionDisabled  = errors.New("recipe ingestion is not configured")
)

// App holds the application's dependencies.
type App struct {
	Catalog *recipe.Catalog
	Plan    *planner.Store
	Cart    *cart.Store
	Orders  *order.Store
	Auth    identity.Authenticator
	Loyalty *loyalty.Store

	cfg          *config.Config
	log          logrus.FieldLogger
	recipeRepo   *recipe.Repository
	planRepo     *planner.PlanRepository
	shoppingRepo *shopping.Repository
	metricsStore *metrics.Store

	ghostClient   ghost.Client
	extractor     *recipe.Extractor
	recipeClipper *clipper.Clipper
	ingestPause   time.Duration

	baseThresholds planner.Thresholds
	started        time.Time
}

// NewApp wires every store over db. textGen and ghostClient may be nil, in
// which case recipe import and ingestion are unavailable.
func NewApp(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	log logrus.FieldLogger,
	textGen llm.TextGenerator,
	ghostClient ghost.Client,
) (*App, error) {
	docs := localstore.New(db.SQL)
	lat := latency.New(cfg.SimulatedLatency)

	recipeRepo := recipe.NewRepository(db.SQL, log)
	catalog := recipe.NewCatalog(recipeRepo, log)
	if err := catalog.Load(ctx); err != nil {
		return nil, err
	}

	cartStore, err := cart.NewStore(ctx, docs, log)
	if err != nil {
		return nil, err
	}
	orders, err := order.NewStore(ctx, docs, lat, log)
	if err != nil {
		return nil, err
	}
	auth, err := identity.NewFakeAuthenticator(ctx, docs, lat, cfg.SessionSecret, cfg.SessionTTL, log)
	if err != nil {
		return nil, err
	}
	points, err := loyalty.NewStore(ctx, docs, log)
	if err != nil {
		return nil, err
	}

	base := planner.Thresholds{
		Calories: planner.Bounds{Lower: cfg.CaloriesLower, Upper: cfg.CaloriesUpper},
		Proteins: planner.Bounds{Lower: cfg.ProteinsLower, Upper: cfg.ProteinsUpper},
		Carbs:    planner.Bounds{Lower: cfg.CarbsLower, Upper: cfg.CarbsUpper},
		Fats:     planner.Bounds{Lower: cfg.FatsLower, Upper: cfg.FatsUpper},
	}

	a := &App{
		Catalog: catalog,
		Plan: planner.NewStore(planner.Options{
			Thresholds: base,
			Scope:      planner.Scope(cfg.StatsScope),
		}, log),
		Cart:    cartStore,
		Orders:  orders,
		Auth:    auth,
		Loyalty: points,

		cfg:          cfg,
		log:          log,
		recipeRepo:   recipeRepo,
		planRepo:     planner.NewPlanRepository(db.SQL),
		shoppingRepo: shopping.NewRepository(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),

		ghostClient: ghostClient,
		ingestPause: cfg.IngestPause,

		baseThresholds: base,
		started:        time.Now(),
	}
	if textGen != nil {
		a.extractor = recipe.NewExtractor(textGen)
		a.recipeClipper = clipper.NewClipper(a.extractor, catalog)
	}
	a.syncThresholds()
	return a, nil
}

// CurrentUser returns the signed-in user or identity.ErrNotLoggedIn.
func (a *App) CurrentUser() (*identity.User, error) {
	u, ok := a.Auth.Current()
	if !ok {
		return nil, identity.ErrNotLoggedIn
	}
	return u, nil
}

// EnsureUser signs in with email when nobody is signed in.
func (a *App) EnsureUser(ctx context.Context, email string) (*identity.User, error) {
	if u, ok := a.Auth.Current(); ok {
		return u, nil
	}
	u, err := a.Auth.Login(ctx, email, "session")
	if err != nil {
		return nil, err
	}
	a.syncThresholds()
	return u, nil
}

// UpdateProfile applies profile changes and rescales the nutrition
// thresholds to the new household.
func (a *App) UpdateProfile(ctx context.Context, upd identity.Update) (*identity.User, error) {
	u, err := a.Auth.Update(ctx, upd)
	if err != nil {
		return nil, err
	}
	a.syncThresholds()
	return u, nil
}

// syncThresholds scales the plan thresholds to the signed-in user's
// household, or to the configured default household.
func (a *App) syncThresholds() {
	adults, children := a.cfg.DefaultAdults, a.cfg.DefaultChildren
	if u, ok := a.Auth.Current(); ok && u.Household != nil {
		adults, children = u.Household.Adults, u.Household.Children
	}
	a.Plan.SetThresholds(a.baseThresholds.ForHousehold(adults, children))
}

// Stats returns the nutritional stats of the plan for the week containing week.
func (a *App) Stats(week time.Time) planner.NutritionalStats {
	a.syncThresholds()
	return a.Plan.CalculateNutritionalStats(week)
}

// planForWeek returns the part of the plan the default scope covers.
func (a *App) planForWeek(week time.Time) planner.WeeklyPlan {
	plan := a.Plan.Snapshot()
	if a.Plan.Scope() != planner.ScopeWeek {
		return plan
	}
	inWeek := make(map[string]bool, 7)
	for _, d := range planner.WeekDays(week) {
		inWeek[d] = true
	}
	for day := range plan {
		if !inWeek[day] {
			delete(plan, day)
		}
	}
	return plan
}

// Checkout turns the cart into an order, clears the cart when configured to
// and credits loyalty points.
func (a *App) Checkout(ctx context.Context, address, payment string) (order.Order, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return order.Order{}, err
	}

	o, err := a.Orders.Create(ctx, u.ID, a.Cart.Items(), address, payment)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if a.cfg.ClearCartOnCheckout {
		if err := a.Cart.Clear(ctx); err != nil {
			a.log.Warnf("order %s placed but cart not cleared: %v", o.ID, err)
		}
	}
	if pts := loyalty.PointsForOrder(o.Total); pts > 0 {
		if err := a.Loyalty.Award(ctx, u.ID, pts, "order "+o.ID); err != nil {
			a.log.Warnf("failed to award points for order %s: %v", o.ID, err)
		}
	}
	return o, nil
}

// AddPlanToCart adds one kit per planned meal to the cart and returns how
// many kits were added.
func (a *App) AddPlanToCart(ctx context.Context, week time.Time) (int, error) {
	plan := a.planForWeek(week)
	n := 0
	for _, day := range plan.Days() {
		for _, r := range plan[day].Recipes() {
			if err := a.Cart.Add(ctx, r, 1); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// SavePlan stores a snapshot of the current plan under the signed-in user.
func (a *App) SavePlan(ctx context.Context, week time.Time) (int64, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return 0, err
	}
	return a.planRepo.Save(ctx, u.ID, week, a.Plan.Snapshot())
}

// RestorePlan loads the latest saved snapshot of a week into the plan.
// It reports false when there is none.
func (a *App) RestorePlan(ctx context.Context, week time.Time) (bool, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return false, err
	}
	saved, err := a.planRepo.LatestForWeek(ctx, u.ID, week)
	if err != nil || saved == nil {
		return false, err
	}
	a.Plan.Restore(saved.Plan)
	return true, nil
}

// PlanHistory returns the newest snapshot of each week found among the
// signed-in user's last n saves, newest first.
func (a *App) PlanHistory(ctx context.Context, n int) ([]planner.SavedPlan, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return nil, err
	}
	saved, err := a.planRepo.ListRecentByUserID(ctx, u.ID, n)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(saved))
	var weeks []planner.SavedPlan
	for _, p := range saved {
		if seen[p.WeekStart] {
			continue
		}
		seen[p.WeekStart] = true
		weeks = append(weeks, p)
	}
	return weeks, nil
}

// HasSavedPlan reports whether the signed-in user saved a plan for the week.
func (a *App) HasSavedPlan(ctx context.Context, week time.Time) (bool, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return false, err
	}
	return a.planRepo.ExistsForWeek(ctx, u.ID, week)
}

// ShoppingList builds the list of the week and stores it for the signed-in user.
func (a *App) ShoppingList(ctx context.Context, week time.Time) (*shopping.ShoppingList, error) {
	list := shopping.Generate(a.planForWeek(week), shopping.Options{DefaultUnitPrice: a.cfg.DefaultUnitPrice})

	u, ok := a.Auth.Current()
	if !ok {
		return list, nil
	}
	if _, err := a.shoppingRepo.Save(ctx, u.ID, week, list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreatorStats computes the dashboard of the signed-in user's recipes.
func (a *App) CreatorStats() (creator.Stats, error) {
	u, err := a.CurrentUser()
	if err != nil {
		return creator.Stats{}, err
	}
	return creator.Compute(u, a.Catalog.List(), a.Orders.List(), time.Now()), nil
}

// ImportRecipe clips a recipe from a web page into the catalog.
func (a *App) ImportRecipe(ctx context.Context, url string) (recipe.Recipe, error) {
	if a.recipeClipper == nil {
		return recipe.Recipe{}, ErrExtractionDisabled
	}
	authorID := ""
	if u, ok := a.Auth.Current(); ok {
		authorID = u.ID
	}

	r, meta, err := a.recipeClipper.ClipURL(ctx, url, authorID)
	if mErr := a.metricsStore.RecordMeta(ctx, meta); mErr != nil {
		a.log.Warnf("failed to record metrics for %s: %v", meta.Operation, mErr)
	}
	if err != nil {
		return recipe.Recipe{}, err
	}
	a.log.WithField("recipe_id", r.ID).Infof("imported '%s' from %s", r.Title, url)
	return r, nil
}

// Usage returns LLM token usage of the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// Health reports process health and the size of the data directory.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(filepath.Dir(a.cfg.DatabasePath), a.started)
}

// CleanupMetrics removes usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}
