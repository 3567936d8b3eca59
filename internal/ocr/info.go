package ocr

// Info describes the recognition backend.
type Info struct {
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Backend     string `json:"backend"`
	Language    string `json:"language"`
	TessdataDir string `json:"tessdata_dir"`
	Error       string `json:"error,omitempty"`
}
