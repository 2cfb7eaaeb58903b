package entity

import "time"

// PageState mirrors what the upload page shows for one session.
type PageState struct {
	UploadVisible bool   `json:"upload_visible"`
	ResultVisible bool   `json:"result_visible"`
	RealSize      string `json:"real_size,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
	DownloadName  string `json:"download_name,omitempty"`
	Alert         string `json:"alert,omitempty"`
}

type Session struct {
	ID         string    `json:"id"`
	DrawSize   int       `json:"draw_size"`
	FrameIndex int       `json:"frame_index"`
	HasImage   bool      `json:"has_image"`
	State      PageState `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeen   time.Time `json:"last_seen"`
}

type Frame struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Output is an encoded icon held for download.
type Output struct {
	Token    string `json:"token"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type FrameRequest struct {
	Index *int `json:"index" binding:"required"`
}

type SizeRequest struct {
	Size int `json:"size" binding:"required"`
}
