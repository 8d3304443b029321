package store

// Key layout of the local store. One key per collection.
const (
	KeyEnquiries     = "cobbler_enquiries"
	KeyInventory     = "cobbler_inventory"
	KeyExpenses      = "cobbler_expenses"
	KeyStaff         = "cobbler_staff"
	KeyBusinessInfo  = "cobbler_business_info"
	KeyInitialized   = "cobbler_initialized"
	KeySchemaVersion = "cobbler_schema_version"

	// ImageKeyPrefix starts every side-store image key:
	// cobbler_img_<enquiryId>_<stage>_<kind>.
	ImageKeyPrefix = "cobbler_img_"
)

// LegacyKeys are left over from older layouts and are the first thing
// dropped when the store runs out of room.
var LegacyKeys = []string{"cobbler_enquiries_backup", "cobbler_photo_cache"}

// CollectionKeys lists the entity collections a reseed clears.
var CollectionKeys = []string{KeyEnquiries, KeyInventory, KeyExpenses, KeyStaff, KeyBusinessInfo}
