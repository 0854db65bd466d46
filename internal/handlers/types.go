package handlers

import "time"

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	Slug     string `doc:"The short link slug"                    example:"abc123" path:"slug"`
	Password string `doc:"Password for protected links, if any"   query:"password"`
}

// RedirectResponse redirects the client to the composed destination.
type RedirectResponse struct {
	Status       int
	Location     string `doc:"The destination URL" header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// PreviewRequest is the request for a link preview.
type PreviewRequest struct {
	Slug string `doc:"The short link slug" example:"abc123" path:"slug"`
}

// PreviewBody describes a link without following it.
type PreviewBody struct {
	Success          bool       `json:"success"`
	Slug             string     `example:"abc123"              json:"slug"`
	Domain           string     `example:"go.example"          json:"domain"`
	Title            string     `json:"title,omitempty"`
	Description      string     `json:"description,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	RequiresPassword bool       `doc:"Whether a password must be supplied"      json:"requiresPassword"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	Expired          bool       `doc:"Whether the link can no longer be followed" json:"expired"`
}

// PreviewResponse is the response for a link preview.
type PreviewResponse struct {
	Body PreviewBody
}

// CreateDomainRequest registers a custom domain.
type CreateDomainRequest struct {
	Authorization string `doc:"Bearer admin token" header:"Authorization"`
	Body          struct {
		Name     string `doc:"Host name serving short links" example:"go.example" json:"name"`
		UserID   string `doc:"Owning user"                   example:"user-1"     json:"userId"`
		Verified bool   `doc:"Mark the domain as verified"  json:"verified,omitempty"`
		Default  bool   `doc:"Make this the user's default domain" json:"default,omitempty"`
	}
}

// DomainBody is the public view of a domain.
type DomainBody struct {
	Success           bool      `json:"success"`
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Name              string    `json:"name"`
	Verified          bool      `json:"verified"`
	IsDefault         bool      `json:"isDefault"`
	VerificationToken string    `doc:"TXT record value proving ownership" json:"verificationToken"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CreateDomainResponse is the response for a registered domain.
type CreateDomainResponse struct {
	Status int
	Body   DomainBody
}

// CreateLinkRequest creates a short link on a registered domain.
type CreateLinkRequest struct {
	Authorization string `doc:"Bearer admin token" header:"Authorization"`
	Body          struct {
		Domain         string     `doc:"Domain name the link is served on" example:"go.example"        json:"domain"`
		UserID         string     `doc:"Owning user"                       example:"user-1"            json:"userId"`
		Slug           string     `doc:"Custom slug; generated when empty" example:"launch"            json:"slug,omitempty"`
		DestinationURL string     `doc:"Absolute http(s) destination"      example:"https://x.test/p" json:"destinationUrl"`
		Title          string     `json:"title,omitempty"`
		Description    string     `json:"description,omitempty"`
		Tags           []string   `json:"tags,omitempty"`
		Password       string     `doc:"Protects the link when set" json:"password,omitempty"`
		ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
		UTMSource      string     `json:"utmSource,omitempty"`
		UTMMedium      string     `json:"utmMedium,omitempty"`
		UTMCampaign    string     `json:"utmCampaign,omitempty"`
	}
}

// LinkBody is the public view of a link. The password hash is never exposed.
type LinkBody struct {
	Success          bool       `json:"success"`
	ID               string     `json:"id"`
	DomainID         string     `json:"domainId"`
	Slug             string     `json:"slug"`
	ShortURL         string     `example:"https://go.example/launch" json:"shortUrl"`
	DestinationURL   string     `json:"destinationUrl"`
	Title            string     `json:"title,omitempty"`
	Description      string     `json:"description,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	RequiresPassword bool       `json:"requiresPassword"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// CreateLinkResponse is the response for a created link.
type CreateLinkResponse struct {
	Status   int
	Location string `header:"Location"`
	Body     LinkBody
}
