package models

// AssetEvent is a single line of the asset event log.
type AssetEvent struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Deleted bool   `json:"deleted"`
}

// AssetEntry is a live asset keyed by its stable identifier.
type AssetEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
