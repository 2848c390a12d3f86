package handlers

// LinkBody describes a stored link.
type LinkBody struct {
	Token    string `doc:"The short token"     example:"Elk6fWZ9"                         json:"token"`
	ShortURL string `doc:"The full short URL"  example:"http://localhost:8888/Elk6fWZ9"   json:"shortUrl"`
	URL      string `doc:"The canonical URL"   example:"http://google.com"                json:"url"`
}

// AddLinkRequest is the request body for shortening a URL.
type AddLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"google.com" json:"url" maxLength:"4096"`
	}
}

// AddLinkResponse is returned after a URL is shortened.
type AddLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body LinkBody
}

// ExpandRequest looks up a token or pasted short URL.
type ExpandRequest struct {
	Shortened string `doc:"A token or full short URL" example:"Elk6fWZ9" query:"shortened" required:"true"`
}

// ExpandResponse is returned for a known token.
type ExpandResponse struct {
	Body LinkBody
}

// RedirectRequest is the request for following a short URL.
type RedirectRequest struct {
	Token string `doc:"The short token" example:"Elk6fWZ9" path:"token"`
}

// RedirectResponse sends the client to the stored URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}
