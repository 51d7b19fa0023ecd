package templating

import "strings"

type LayoutModel struct {
	PageTitle string
	UserId    string
}

// ShortUserId is the prefix of the user id shown in the header.
func (m LayoutModel) ShortUserId() string {
	if len(m.UserId) > 8 {
		return m.UserId[:8] + "…"
	}
	return m.UserId
}

type LandingModel struct {
	LayoutModel
}

type LoginModel struct {
	LayoutModel
	Email   string
	Message string
}

type SignupModel struct {
	LayoutModel
	Email       string
	Username    string
	Message     string
	FieldErrors map[string]string
}

type VerifyEmailModel struct {
	LayoutModel
	Sent bool
}

type CatalogItemModel struct {
	Id           string
	Title        string
	MediaType    string
	ThumbnailUrl string
	CreatedAt    string
	Tags         []string
	DetailUrl    string
}

type CatalogModel struct {
	LayoutModel
	UserEmail string
	Q         string
	TagsCsv   string
	Page      int
	PageSize  int
	PageCount int
	Total     int64
	HasPrev   bool
	HasNext   bool
	PrevUrl   string
	NextUrl   string
	Items     []*CatalogItemModel
}

type DetailModel struct {
	LayoutModel
	Id               string
	Title            string
	Description      string
	MediaType        string
	CreatedAt        string
	Tags             string
	MimeType         string
	OriginalFilename string
	SizeHuman        string
	SignedUrl        string
	SignedUrlTtl     int
	BackUrl          string
	ZipUrl           string
	FileCount        int
}

func (m DetailModel) IsImage() bool {
	return m.SignedUrl != "" && strings.HasPrefix(m.MimeType, "image/")
}

func (m DetailModel) IsVideo() bool {
	return m.SignedUrl != "" && strings.HasPrefix(m.MimeType, "video/")
}

func (m DetailModel) IsAudio() bool {
	return m.SignedUrl != "" && strings.HasPrefix(m.MimeType, "audio/")
}

type UploadModel struct {
	LayoutModel
	Title       string
	Description string
	TagsCsv     string
	MediaType   string
	FormError   string
	FieldErrors map[string]string
}

type ErrorModel struct {
	LayoutModel
	StatusCode int
	Message    string
}
