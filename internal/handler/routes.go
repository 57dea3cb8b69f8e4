package handler

import "github.com/go-chi/chi/v5"

// API groups the REST handlers so the server and the tests mount the same
// route table.
type API struct {
	Boards      *BoardHandler
	Sections    *SectionHandler
	Cards       *CardHandler
	Connections *ConnectionHandler
	Notes       *NoteHandler
}

// Routes registers the REST endpoints on r, which is expected to be mounted
// under /api.
//
// ROUTE TABLE:
//
//	GET    /boards                    → board summaries
//	POST   /boards                    → create board
//	GET    /boards/{id}               → full board
//	PUT    /boards/{id}               → update name/description/thumbnail/viewport
//	DELETE /boards/{id}               → delete board (cascades)
//	GET    /boards/{id}/thumbnail.png → rendered PNG
//	POST   /sections, PUT|DELETE /sections/{id}
//	POST   /cards,    PUT|DELETE /cards/{id}
//	POST   /connections, DELETE /connections/{id}
//	GET    /notes, POST /notes
func (a API) Routes(r chi.Router) {
	r.Route("/boards", func(r chi.Router) {
		r.Get("/", a.Boards.HandleList)
		r.Post("/", a.Boards.HandleCreate)
		r.Get("/{id}", a.Boards.HandleGet)
		r.Put("/{id}", a.Boards.HandleUpdate)
		r.Delete("/{id}", a.Boards.HandleDelete)
		r.Get("/{id}/thumbnail.png", a.Boards.HandleThumbnail)
	})

	r.Post("/sections", a.Sections.HandleCreate)
	r.Put("/sections/{id}", a.Sections.HandleUpdate)
	r.Delete("/sections/{id}", a.Sections.HandleDelete)

	r.Post("/cards", a.Cards.HandleCreate)
	r.Put("/cards/{id}", a.Cards.HandleUpdate)
	r.Delete("/cards/{id}", a.Cards.HandleDelete)

	r.Post("/connections", a.Connections.HandleCreate)
	r.Delete("/connections/{id}", a.Connections.HandleDelete)

	r.Get("/notes", a.Notes.HandleList)
	r.Post("/notes", a.Notes.HandleCreate)
}
