// Package animes implements the anime catalogue: storage, caching, business
// rules and the HTTP surface.
package animes

// Anime is the single resource served by the API.
type Anime struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PostRequestBody is the payload accepted when creating an anime.
type PostRequestBody struct {
	Name string `json:"name" validate:"required,notblank"`
}

// PutRequestBody is the payload accepted when replacing an anime.
type PutRequestBody struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required,notblank"`
}

const (
	entityAnime   = "anime"
	actionCreate  = "anime.create"
	actionReplace = "anime.replace"
	actionDelete  = "anime.delete"
)

// SortableFields lists the columns a page request may order by.
var SortableFields = []string{"id", "name"}
