package model

type Document struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	NumChunks int    `json:"num_chunks"`
	Ctime     int64  `json:"ctime"`
}

type Chunk struct {
	Index int    `json:"index"`
	Data  string `json:"data"`
}
