package models

// Distributor is the catalog view of a delivery destination. LocationID
// drives merge-key derivation; MapURL is kept as a coordinate fallback for
// records imported without explicit lat/lng.
type Distributor struct {
	Code        string    `bson:"code" json:"code"`
	AgencyName  string    `bson:"agencyName" json:"agencyName"`
	CompanyCode string    `bson:"companyCode,omitempty" json:"companyCode,omitempty"`
	LocationID  string    `bson:"locationId,omitempty" json:"locationId,omitempty"`
	Location    *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	MapURL      string    `bson:"mapUrl,omitempty" json:"mapUrl,omitempty"`
}
