package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ecoleta/client/internal/container"
	"ecoleta/client/internal/domain"
	"ecoleta/client/internal/service"
	"ecoleta/client/internal/view"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type command func(ctx context.Context, app *container.Container, args []string) error

var commands = map[string]command{
	"items":  runItems,
	"states": runStates,
	"cities": runCities,
	"points": runPoints,
	"point":  runPoint,
	"create": runCreate,
	"worker": runWorker,
}

func runItems(ctx context.Context, app *container.Container, _ []string) error {
	items, err := app.Client.GetItems(ctx)
	if err != nil {
		return err
	}
	fmt.Print(view.Items(items, nil))
	return nil
}

func runStates(ctx context.Context, app *container.Container, _ []string) error {
	states, err := app.Geo.ListStates(ctx)
	if err != nil {
		return err
	}
	fmt.Print(view.States(states))
	return nil
}

func runCities(ctx context.Context, app *container.Container, args []string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one UF")
	}
	cities, err := app.Geo.ListCities(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(view.Cities(cities))
	return nil
}

func runPoints(ctx context.Context, app *container.Container, args []string) error {
	fs := pflag.NewFlagSet("points", pflag.ContinueOnError)
	uf := fs.String("uf", "", "federative unit, e.g. SC")
	city := fs.String("city", "", "city name")
	items := fs.IntSlice("item", nil, "category id to filter by (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uf == "" || *city == "" {
		return errors.New("--uf and --city are required")
	}

	browser := app.NewBrowser(*uf, *city)
	defer browser.Close()

	browser.OnPoints(func(points []domain.Point) {
		log.Debugf("Showing %d points for %v", len(points), browser.Selected())
	})
	if err := browser.Start(ctx); err != nil {
		log.Warnf("⚠️ %v", err)
	}
	for _, id := range *items {
		browser.Toggle(domain.CategoryID(id))
	}
	browser.Wait()

	points, err := browser.Points()
	if err != nil {
		return err
	}

	fmt.Print(view.Items(browser.Items(), browser.IsSelected))
	fmt.Println()
	fmt.Print(view.Points(points))
	return nil
}

func runPoint(ctx context.Context, app *container.Container, args []string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one point id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid point id %q: %w", args[0], err)
	}

	browser := app.NewBrowser("", "")
	defer browser.Close()

	detail, err := browser.Detail(ctx, id)
	if err != nil {
		return err
	}
	fmt.Print(view.PointDetail(detail))
	return nil
}

func runCreate(ctx context.Context, app *container.Container, args []string) error {
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	name := fs.String("name", "", "entity name")
	email := fs.String("email", "", "contact e-mail")
	whatsapp := fs.String("whatsapp", "", "WhatsApp number")
	uf := fs.String("uf", "", "federative unit")
	city := fs.String("city", "", "city name")
	lat := fs.Float64("lat", 0, "latitude of the point")
	lng := fs.Float64("lng", 0, "longitude of the point")
	items := fs.IntSlice("item", nil, "collected category id (repeatable)")
	image := fs.String("image", "", "path to a photo of the point")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := app.NewForm()
	defer f.Close()

	if err := f.LoadOptions(ctx); err != nil {
		return err
	}

	for field, value := range map[string]string{"name": *name, "email": *email, "whatsapp": *whatsapp} {
		if err := f.SetField(field, value); err != nil {
			return err
		}
	}
	if err := checkState(f.States(), *uf); err != nil {
		return err
	}
	if _, err := f.SelectState(ctx, *uf); err != nil {
		return err
	}
	if err := checkCity(f.Cities(), *city); err != nil {
		return err
	}
	f.SelectCity(*city)

	position := f.InitialPosition()
	if fs.Changed("lat") || fs.Changed("lng") {
		position = domain.Position{Latitude: *lat, Longitude: *lng}
	}
	f.SelectPosition(position.Latitude, position.Longitude)

	for _, id := range *items {
		if err := checkItem(f.Catalog(), domain.CategoryID(id)); err != nil {
			return err
		}
		f.ToggleItem(domain.CategoryID(id))
	}
	fmt.Print(view.Items(f.Catalog(), f.IsSelected))

	if *image != "" {
		if err := f.AttachImage(*image); err != nil {
			return err
		}
	}

	submission, err := f.Submit(ctx)
	if submission != nil {
		fmt.Print(view.Submission(submission))
	}
	return err
}

func runWorker(ctx context.Context, app *container.Container, _ []string) error {
	log.Infof("🚀 Retrying queued submissions with %d workers", app.Config.Workers.Count)
	err := app.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if errors.Is(err, service.ErrQueueDisabled) {
		fmt.Fprintln(os.Stderr, "worker needs redis.enabled=true")
	}
	return err
}

func checkState(states []domain.State, uf string) error {
	if uf == "" {
		return nil
	}
	for _, state := range states {
		if strings.EqualFold(state.Abbrev, uf) {
			return nil
		}
	}
	return fmt.Errorf("unknown UF %q", uf)
}

func checkCity(cities []domain.City, city string) error {
	if city == "" || len(cities) == 0 {
		return nil
	}
	for _, c := range cities {
		if strings.EqualFold(c.Name, city) {
			return nil
		}
	}
	return fmt.Errorf("unknown city %q", city)
}

func checkItem(catalog []domain.Item, id domain.CategoryID) error {
	for _, item := range catalog {
		if item.ID == id {
			return nil
		}
	}
	return fmt.Errorf("unknown item %d", id)
}
