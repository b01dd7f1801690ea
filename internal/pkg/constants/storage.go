package constants

// ListingImagesBucket holds gallery images referenced from listings.images.
const ListingImagesBucket = "listing-images"

// Locals keys set by middleware.
const (
	LocalsIdentity = "identity"
	LocalsTraceID  = "trace_id"
)
