// Package service runs the CRM sync pass that feeds the local read models.
package service

import (
	"context"
	"sync"

	"dealdesk_backend/internal/crm"
	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/events"
	"dealdesk_backend/internal/geo"
	"dealdesk_backend/platform/apperr"
	"dealdesk_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const opSync = "crm.sync"

// contactFetchConcurrency bounds the contact hydration fan-out so one sync
// pass cannot drain the API rate budget on its own.
const contactFetchConcurrency = 8

// API is the slice of the GoHighLevel client the sync pass needs.
type API interface {
	ListOpportunities(ctx context.Context) ([]crm.RawOpportunity, error)
	GetContact(ctx context.Context, contactID string) (crm.RawContact, error)
}

// Service pulls opportunities and contacts from the CRM, converts them at
// the edge, and replaces the local snapshots.
type Service struct {
	api       API
	parser    *crm.Parser
	directory *crm.Directory
	store     *deals.Store
	bus       events.Bus
	log       *logger.Logger
}

// NewService creates the sync service.
func NewService(api API, parser *crm.Parser, directory *crm.Directory, store *deals.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		api:       api,
		parser:    parser,
		directory: directory,
		store:     store,
		bus:       bus,
		log:       log,
	}
}

// Sync refreshes buyers, properties, and deal snapshots from the CRM.
// Records that fail to parse are dropped and counted rather than stored
// half-typed.
func (s *Service) Sync(ctx context.Context) (crm.ParseStats, error) {
	rawOpps, err := s.api.ListOpportunities(ctx)
	if err != nil {
		return crm.ParseStats{}, apperr.Wrap(apperr.KindUnavailable, "failed to list opportunities", err).WithOp(opSync)
	}

	contacts, err := s.fetchContacts(ctx, rawOpps)
	if err != nil {
		return crm.ParseStats{}, err
	}

	stats := crm.ParseStats{Total: len(rawOpps)}

	buyers := make([]crm.Buyer, 0, len(contacts))
	buyerByID := make(map[string]crm.Buyer, len(contacts))
	for _, raw := range contacts {
		buyer, ok := s.parser.ParseBuyer(raw)
		if !ok {
			s.log.Warn("dropped unparseable contact", "contact_id", raw.ID)
			continue
		}
		enrichBuyerLocation(&buyer)
		buyers = append(buyers, buyer)
		buyerByID[buyer.ContactID] = buyer
	}

	properties := make([]crm.Property, 0, len(rawOpps))
	dealSnapshots := make([]deals.Deal, 0, len(rawOpps))
	for _, raw := range rawOpps {
		property, ok := s.parser.ParseProperty(raw)
		if !ok {
			stats.Dropped++
			s.log.Warn("dropped unparseable opportunity", "opportunity_id", raw.ID)
			continue
		}
		if _, ok := buyerByID[raw.ContactID]; !ok {
			stats.Dropped++
			s.log.Warn("dropped opportunity without parseable buyer", "opportunity_id", raw.ID, "contact_id", raw.ContactID)
			continue
		}
		deal, ok := s.parser.ParseDeal(raw, property)
		if !ok {
			stats.Dropped++
			s.log.Warn("dropped opportunity with invalid pipeline state", "opportunity_id", raw.ID)
			continue
		}
		enrichPropertyLocation(&property)
		properties = append(properties, property)
		dealSnapshots = append(dealSnapshots, deal)
		stats.Parsed++
	}

	s.directory.Replace(buyers, properties)
	for _, deal := range dealSnapshots {
		s.store.Upsert(deal)
	}

	s.log.Info("crm sync complete",
		"total", stats.Total, "parsed", stats.Parsed, "dropped", stats.Dropped,
		"buyers", len(buyers), "properties", len(properties))

	s.bus.Publish(ctx, events.OpportunitiesSynced{
		BaseEvent: events.NewBaseEvent(),
		Total:     stats.Total,
		Parsed:    stats.Parsed,
		Dropped:   stats.Dropped,
	})

	return stats, nil
}

// fetchContacts hydrates the distinct contacts behind a batch of
// opportunities with bounded concurrency.
func (s *Service) fetchContacts(ctx context.Context, opps []crm.RawOpportunity) ([]crm.RawContact, error) {
	seen := make(map[string]struct{}, len(opps))
	ids := make([]string, 0, len(opps))
	for _, opp := range opps {
		if opp.ContactID == "" {
			continue
		}
		if _, dup := seen[opp.ContactID]; dup {
			continue
		}
		seen[opp.ContactID] = struct{}{}
		ids = append(ids, opp.ContactID)
	}

	var mu sync.Mutex
	contacts := make([]crm.RawContact, 0, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(contactFetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			contact, err := s.api.GetContact(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			contacts = append(contacts, contact)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to hydrate contacts", err).WithOp(opSync)
	}

	return contacts, nil
}

func enrichBuyerLocation(buyer *crm.Buyer) {
	if buyer.Coordinates != nil || len(buyer.PreferredZips) == 0 {
		return
	}
	if coords, ok := geo.ZipCoordinates(buyer.PreferredZips[0]); ok {
		buyer.Coordinates = &coords
	}
}

func enrichPropertyLocation(property *crm.Property) {
	if property.Coordinates != nil || property.Zip == "" {
		return
	}
	if coords, ok := geo.ZipCoordinates(property.Zip); ok {
		property.Coordinates = &coords
	}
}
