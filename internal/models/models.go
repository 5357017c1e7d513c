package models

import (
	"strconv"
	"time"
)

type AddressStatus string

const (
	AddressAvailable AddressStatus = "available"
	AddressAssigned  AddressStatus = "assigned"
	AddressReserved  AddressStatus = "reserved"
	// AddressBlocked is administrative; the ledger's assign/release/reserve
	// never enter or leave it.
	AddressBlocked AddressStatus = "blocked"
)

func (s AddressStatus) Valid() bool {
	switch s {
	case AddressAvailable, AddressAssigned, AddressReserved, AddressBlocked:
		return true
	}
	return false
}

type AddressPool struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	NetworkAddress string    `json:"network_address"`
	PrefixLength   int       `json:"subnet_mask"`
	Gateway        *string   `json:"gateway"`
	VLANID         *int      `json:"vlan_id"`
	DNSServers     []string  `json:"dns_servers"`
	CreatedAt      time.Time `json:"created_at"`
}

// CIDR returns the pool in network/prefix notation.
func (p AddressPool) CIDR() string {
	return p.NetworkAddress + "/" + strconv.Itoa(p.PrefixLength)
}

// PoolStats counts a pool's addresses by status.
type PoolStats struct {
	Total     int `json:"total"`
	Assigned  int `json:"assigned"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Blocked   int `json:"blocked"`
}

// Utilization is the assigned share of the pool as a rounded percentage.
func (s PoolStats) Utilization() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Assigned*100 + s.Total/2) / s.Total
}

type PoolSummary struct {
	AddressPool
	Stats PoolStats `json:"stats"`
}

type AddressRecord struct {
	ID             string        `json:"id"`
	PoolID         string        `json:"pool_id"`
	Address        string        `json:"ip_address"`
	Status         AddressStatus `json:"status"`
	Hostname       *string       `json:"hostname"`
	AssetID        *string       `json:"asset_id"`
	AssetName      *string       `json:"asset_name,omitempty"`
	AssignmentDate *time.Time    `json:"assignment_date"`
	Notes          *string       `json:"notes"`
	CreatedAt      time.Time     `json:"created_at"`
}

type DataCenter struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Location            string    `json:"location"`
	Address             *string   `json:"address"`
	PowerCapacityKW     *float64  `json:"power_capacity_kw"`
	CoolingCapacityTons *float64  `json:"cooling_capacity_tons"`
	RackCount           int       `json:"rack_count"`
	CreatedAt           time.Time `json:"created_at"`
}

type RackStatus string

const (
	RackAvailable   RackStatus = "available"
	RackOccupied    RackStatus = "occupied"
	RackMaintenance RackStatus = "maintenance"
	RackReserved    RackStatus = "reserved"
)

func (s RackStatus) Valid() bool {
	switch s {
	case RackAvailable, RackOccupied, RackMaintenance, RackReserved:
		return true
	}
	return false
}

type Rack struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	DataCenterID       string     `json:"data_center_id"`
	DataCenterName     string     `json:"data_center_name,omitempty"`
	RowPosition        string     `json:"row_position"`
	ColumnPosition     string     `json:"column_position"`
	HeightUnits        int        `json:"height_units"`
	PowerCapacityWatts *int       `json:"power_capacity_watts"`
	WeightCapacityKG   *float64   `json:"weight_capacity_kg"`
	Status             RackStatus `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
}

// RackSummary is a rack with its unit usage.
type RackSummary struct {
	Rack
	UsedUnits  int `json:"used_units"`
	AssetCount int `json:"asset_count"`
}

// Utilization is the used share of the rack as a rounded percentage.
func (r RackSummary) Utilization() int {
	if r.HeightUnits == 0 {
		return 0
	}
	return (r.UsedUnits*100 + r.HeightUnits/2) / r.HeightUnits
}

type AssetStatus string

const (
	AssetActive         AssetStatus = "active"
	AssetInactive       AssetStatus = "inactive"
	AssetMaintenance    AssetStatus = "maintenance"
	AssetDecommissioned AssetStatus = "decommissioned"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetActive, AssetInactive, AssetMaintenance, AssetDecommissioned:
		return true
	}
	return false
}

type Asset struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name"`
	AssetTag              *string     `json:"asset_tag"`
	SerialNumber          *string     `json:"serial_number"`
	Model                 *string     `json:"model"`
	Manufacturer          *string     `json:"manufacturer"`
	RackID                *string     `json:"rack_id"`
	RackName              *string     `json:"rack_name,omitempty"`
	RackPosition          *int        `json:"rack_position"`
	HeightUnits           int         `json:"height_units"`
	PowerConsumptionWatts *int        `json:"power_consumption_watts"`
	Status                AssetStatus `json:"status"`
	CustomerID            *string     `json:"customer_id"`
	ProjectID             *string     `json:"project_id"`
	Notes                 *string     `json:"notes"`
	CreatedAt             time.Time   `json:"created_at"`
}

type Customer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail *string   `json:"contact_email"`
	ContactPhone *string   `json:"contact_phone"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CustomerID   *string   `json:"customer_id"`
	CustomerName *string   `json:"customer_name,omitempty"`
	Status       string    `json:"status"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChangeEntry is one row of the append-only change log.
type ChangeEntry struct {
	ID          int64          `json:"id"`
	TableName   string         `json:"table_name"`
	RecordID    string         `json:"record_id"`
	Action      string         `json:"action"`
	Changes     map[string]any `json:"changes"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}
