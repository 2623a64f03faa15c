// Package form holds the state of the create-point screen.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ecoleta/client/internal/domain"
	"ecoleta/client/internal/selection"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownField = errors.New("unknown form field")

// Options is where the form loads its pick lists from
type Options interface {
	GetItems(ctx context.Context) ([]domain.Item, error)
}

type Geo interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListCities(ctx context.Context, uf string) ([]domain.City, error)
}

// Submitter sends the finished point
type Submitter interface {
	Submit(ctx context.Context, point domain.NewPoint) (*domain.Submission, error)
}

type Form struct {
	options   Options
	geo       Geo
	locator   domain.Locator
	submitter Submitter
	items     *selection.Controller[domain.CategoryID]

	mu              sync.Mutex
	name            string
	email           string
	whatsapp        string
	uf              string
	city            string
	position        domain.Position
	initialPosition domain.Position
	catalog         []domain.Item
	states          []domain.State
	cities          []domain.City
	image           *Attachment
}

func New(options Options, geo Geo, locator domain.Locator, submitter Submitter) *Form {
	return &Form{
		options:   options,
		geo:       geo,
		locator:   locator,
		submitter: submitter,
		items:     selection.NewController[domain.CategoryID](),
	}
}

// LoadOptions fetches the item catalog, the state list and the initial map
// position. A denied location leaves the map at the origin.
func (f *Form) LoadOptions(ctx context.Context) error {
	catalog, err := f.options.GetItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	states, err := f.geo.ListStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load states: %w", err)
	}

	var position domain.Position
	if f.locator != nil {
		position, err = f.locator.Position(ctx)
		if err != nil {
			log.Warnf("⚠️ Failed to get current position: %v", err)
			position = domain.Position{}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = catalog
	f.states = states
	f.initialPosition = position
	return nil
}

// SetField updates a text input by its name
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "name":
		f.name = value
	case "email":
		f.email = value
	case "whatsapp", "zap":
		f.whatsapp = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// SelectState stores the UF and loads its cities. Changing the UF drops the
// chosen city; an empty UF also clears the city list without a lookup.
func (f *Form) SelectState(ctx context.Context, uf string) ([]domain.City, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))

	f.mu.Lock()
	if f.uf != uf {
		f.city = ""
		f.cities = nil
	}
	f.uf = uf
	f.mu.Unlock()

	if uf == "" {
		return nil, nil
	}

	cities, err := f.geo.ListCities(ctx, uf)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uf == uf {
		f.cities = cities
	}
	return cities, nil
}

func (f *Form) SelectCity(city string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.city = city
}

// SelectPosition records a map click
func (f *Form) SelectPosition(latitude, longitude float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = domain.Position{Latitude: latitude, Longitude: longitude}
}

func (f *Form) ToggleItem(id domain.CategoryID) []domain.CategoryID {
	return f.items.Toggle(id)
}

func (f *Form) IsSelected(id domain.CategoryID) bool {
	return f.items.IsSelected(id)
}

// AttachImage opens path as the point photo, releasing any previous one.
// On error the previous attachment is kept.
func (f *Form) AttachImage(path string) error {
	attachment, err := OpenAttachment(path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	previous := f.image
	f.image = attachment
	f.mu.Unlock()

	log.Debugf("Attached %s (%s)", attachment.Name(), attachment.ContentType())

	if previous != nil {
		if err := previous.Close(); err != nil {
			log.Warnf("⚠️ Failed to release image %s: %v", previous.Name(), err)
		}
	}
	return nil
}

func (f *Form) Catalog() []domain.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Item(nil), f.catalog...)
}

func (f *Form) States() []domain.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.State(nil), f.states...)
}

func (f *Form) Cities() []domain.City {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.City(nil), f.cities...)
}

func (f *Form) InitialPosition() domain.Position {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialPosition
}

// Point assembles the payload for POST points
func (f *Form) Point() (domain.NewPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	point := domain.NewPoint{
		Name:      f.name,
		Email:     f.email,
		Whatsapp:  f.whatsapp,
		UF:        f.uf,
		City:      f.city,
		Latitude:  f.position.Latitude,
		Longitude: f.position.Longitude,
		Items:     f.items.Selected(),
	}

	if f.image != nil {
		image, err := f.image.Image()
		if err != nil {
			return domain.NewPoint{}, err
		}
		point.Image = image
	}
	return point, nil
}

func (f *Form) Submit(ctx context.Context) (*domain.Submission, error) {
	point, err := f.Point()
	if err != nil {
		return nil, fmt.Errorf("failed to build point: %w", err)
	}
	return f.submitter.Submit(ctx, point)
}

// Close releases the attached image
func (f *Form) Close() error {
	f.mu.Lock()
	image := f.image
	f.image = nil
	f.mu.Unlock()

	if image == nil {
		return nil
	}
	return image.Close()
}
