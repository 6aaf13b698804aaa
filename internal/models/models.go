package models

// Collection describes a Digital Collections collection listed in the
// collections configuration file.
type Collection struct {
	UUID    string `json:"uuid" yaml:"uuid" toml:"uuid"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Include bool   `json:"include" yaml:"include" toml:"include"`
}

// Capture is one digitized image record returned by the capture listing.
type Capture struct {
	UUID         string   `json:"uuid"`
	CollectionID string   `json:"collection_id,omitempty"`
	SortString   string   `json:"sortString"`
	ImageID      string   `json:"imageID"`
	ImageLinks   []string `json:"imageLinks,omitempty"`
	Title        string   `json:"title"`
}

// ImageURL is a single size variant of a capture image
type ImageURL struct {
	Size int    `json:"size" parquet:"size"`
	URL  string `json:"url" parquet:"url"`
}

// RowData holds the descriptive payload of an exported row.
type RowData struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	ImageID   string     `json:"image_id"`
	ImageURLs []ImageURL `json:"image_urls"`
	Location  string     `json:"location,omitempty"`
	Date      string     `json:"date,omitempty"`
}

// Row is one line of export output.
type Row struct {
	ID           string  `json:"id"`
	CollectionID string  `json:"collection_id"`
	Data         RowData `json:"data"`
}

// Metadata is the location/date pair extracted from a MODS document and
// stored in the metadata cache. Empty fields mean nothing was found.
type Metadata struct {
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Apply merges the metadata into the row data.
func (m Metadata) Apply(data *RowData) {
	data.Location = m.Location
	data.Date = m.Date
}
