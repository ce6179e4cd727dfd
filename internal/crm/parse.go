package crm

import (
	"strconv"
	"strings"
	"time"

	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/geo"
	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/platform/validator"

	"github.com/nyaruka/phonenumbers"
)

// Custom field keys as configured in the GHL location. Changing them in the
// CRM requires changing them here; everywhere else works with typed fields.
const (
	fieldDesiredBeds       = "contact.desired_beds"
	fieldDesiredBaths      = "contact.desired_baths"
	fieldDownPayment       = "contact.down_payment"
	fieldPriceMin          = "contact.price_min"
	fieldPriceMax          = "contact.price_max"
	fieldPreferredZips     = "contact.preferred_zips"
	fieldPreferredLocation = "contact.preferred_location"

	fieldPropertyAddress = "opportunity.property_address"
	fieldPropertyCity    = "opportunity.property_city"
	fieldPropertyState   = "opportunity.property_state"
	fieldPropertyZip     = "opportunity.property_zip"
	fieldPropertyPrice   = "opportunity.property_price"
	fieldPropertyBeds    = "opportunity.property_beds"
	fieldPropertyBaths   = "opportunity.property_baths"
	fieldPropertySqft    = "opportunity.property_sqft"
	fieldHeroImage       = "opportunity.hero_image_url"
	fieldLatitude        = "opportunity.latitude"
	fieldLongitude       = "opportunity.longitude"
	fieldRecordCode      = "opportunity.record_code"
)

// defaultRegion is used when a phone number has no country prefix.
const defaultRegion = "US"

// ParseStats summarizes a parse pass over a raw batch.
type ParseStats struct {
	Total   int
	Parsed  int
	Dropped int
}

// Parser converts raw CRM payloads into typed entities, failing closed:
// records that do not parse are dropped and counted, never passed through
// half-typed.
type Parser struct {
	val *validator.Validator
}

// NewParser creates a parser.
func NewParser(val *validator.Validator) *Parser {
	return &Parser{val: val}
}

// propertyRequired is the validation gate a property must clear before it
// is allowed inward.
type propertyRequired struct {
	Address string  `validate:"required"`
	Zip     string  `validate:"required,min=5"`
	Price   float64 `validate:"gt=0"`
}

// ParseBuyer converts a raw contact. ok is false when the contact lacks the
// identity fields a buyer needs.
func (p *Parser) ParseBuyer(raw RawContact) (Buyer, bool) {
	if raw.ID == "" || strings.TrimSpace(raw.Name) == "" {
		return Buyer{}, false
	}

	fields := indexFields(raw.CustomFields)
	buyer := Buyer{
		ContactID:         raw.ID,
		Name:              strings.TrimSpace(raw.Name),
		Email:             strings.TrimSpace(raw.Email),
		Phone:             normalizePhone(raw.Phone),
		DesiredBeds:       fieldInt(fields, fieldDesiredBeds),
		DesiredBaths:      fieldFloat(fields, fieldDesiredBaths),
		DownPayment:       fieldFloat(fields, fieldDownPayment),
		PriceMin:          fieldFloat(fields, fieldPriceMin),
		PriceMax:          fieldFloat(fields, fieldPriceMax),
		PreferredZips:     fieldZipList(fields, fieldPreferredZips),
		PreferredLocation: fieldString(fields, fieldPreferredLocation),
	}

	return buyer, true
}

// ParseProperty converts the property facet of a raw opportunity. ok is
// false when the record fails the required-field gate.
func (p *Parser) ParseProperty(raw RawOpportunity) (Property, bool) {
	fields := indexFields(raw.CustomFields)

	prop := Property{
		ID:           raw.ID,
		Code:         fieldString(fields, fieldRecordCode),
		Address:      fieldString(fields, fieldPropertyAddress),
		City:         fieldString(fields, fieldPropertyCity),
		State:        fieldString(fields, fieldPropertyState),
		Zip:          fieldString(fields, fieldPropertyZip),
		HeroImageURL: fieldString(fields, fieldHeroImage),
	}
	if price := fieldFloat(fields, fieldPropertyPrice); price != nil {
		prop.Price = *price
	}
	if beds := fieldInt(fields, fieldPropertyBeds); beds != nil {
		prop.Beds = *beds
	}
	if baths := fieldFloat(fields, fieldPropertyBaths); baths != nil {
		prop.Baths = *baths
	}
	if sqft := fieldInt(fields, fieldPropertySqft); sqft != nil {
		prop.Sqft = *sqft
	}

	lat := fieldFloat(fields, fieldLatitude)
	lon := fieldFloat(fields, fieldLongitude)
	if lat != nil && lon != nil {
		prop.Coordinates = &geo.Coordinates{Lat: *lat, Lon: *lon}
	}

	gate := propertyRequired{Address: prop.Address, Zip: prop.Zip, Price: prop.Price}
	if raw.ID == "" || p.val.Struct(gate) != nil {
		return Property{}, false
	}

	return prop, true
}

// ParseDeal derives the pipeline snapshot from a raw opportunity. The stage
// comes from the association's relation label when present, otherwise the
// deal is treated as freshly sent.
func (p *Parser) ParseDeal(raw RawOpportunity, property Property) (deals.Deal, bool) {
	if raw.ID == "" || raw.ContactID == "" {
		return deals.Deal{}, false
	}

	stage := pipeline.StageSentToBuyer
	if raw.RelationLabel != "" {
		parsed, ok := pipeline.ByRelationLabel(raw.RelationLabel)
		if !ok {
			return deals.Deal{}, false
		}
		stage = parsed
	}

	propertyID := property.Code
	if propertyID == "" {
		propertyID = property.ID
	}

	return deals.Deal{
		ID:             raw.ID,
		OpportunityID:  raw.ID,
		BuyerID:        raw.ContactID,
		PropertyID:     propertyID,
		Stage:          stage,
		RelationID:     raw.RelationID,
		LastActivityAt: parseTimestamp(raw.LastActivity, raw.UpdatedAt),
	}, true
}

func indexFields(fields []RawCustomField) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		key := f.Key
		if key == "" {
			key = f.ID
		}
		out[key] = f.Value
	}
	return out
}

func fieldString(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func fieldFloat(fields map[string]interface{}, key string) *float64 {
	switch v := fields[key].(type) {
	case float64:
		return &v
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
		if cleaned == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func fieldInt(fields map[string]interface{}, key string) *int {
	f := fieldFloat(fields, key)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func fieldZipList(fields map[string]interface{}, key string) []string {
	raw := fieldString(fields, key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	zips := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			zips = append(zips, trimmed)
		}
	}
	return zips
}

func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func parseTimestamp(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
