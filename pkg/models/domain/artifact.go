package domain

import "errors"

// ErrFigureNotSupported is returned wherever a figure would have to be rendered.
var ErrFigureNotSupported = errors.New("figure artifacts are not supported")

type ArtifactKind string

const (
	KindTable   ArtifactKind = "table"
	KindListing ArtifactKind = "listing"
	KindFigure  ArtifactKind = "figure"
)

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Justification of a column's text: "l", "c" or "r".
type Justification string

const (
	JustifyLeft   Justification = "l"
	JustifyCenter Justification = "c"
	JustifyRight  Justification = "r"
)

// RenderSpec is the layout metadata a renderer needs besides the cells.
type RenderSpec struct {
	Titles    []string `json:"titles"`
	Footnotes []string `json:"footnotes,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	// ColumnHeaders holds one or two header rows. Cells of a spanning row are
	// separated with " | " by convention of the callers.
	ColumnHeaders [][]string      `json:"column_headers"`
	ColumnWidths  []float64       `json:"column_widths,omitempty"`
	Justify       []Justification `json:"justify,omitempty"`
	GroupBy       []string        `json:"group_by,omitempty"`
	PageBy        []string        `json:"page_by,omitempty"`
	Orientation   Orientation     `json:"orientation"`
}

// Artifact is one generated TLF. The set of implementations is closed: TableArtifact,
// ListingArtifact and FigureArtifact.
type Artifact interface {
	Kind() ArtifactKind
	PlanID() string
	Spec() RenderSpec
	artifact()
}

type TableArtifact struct {
	ID      string
	Render  RenderSpec
	ARD     *ARD
	Display *DisplayTable
}

func (a *TableArtifact) Kind() ArtifactKind { return KindTable }
func (a *TableArtifact) PlanID() string     { return a.ID }
func (a *TableArtifact) Spec() RenderSpec   { return a.Render }
func (a *TableArtifact) artifact()          {}

// ListingArtifact carries listing rows already formatted as text. When the listing is
// paged, the first column holds the page label and Render.PageBy names it.
type ListingArtifact struct {
	ID     string
	Render RenderSpec
	Data   *DisplayTable
}

func (a *ListingArtifact) Kind() ArtifactKind { return KindListing }
func (a *ListingArtifact) PlanID() string     { return a.ID }
func (a *ListingArtifact) Spec() RenderSpec   { return a.Render }
func (a *ListingArtifact) artifact()          {}

// FigureArtifact is declared for completeness. No builder produces one and renderers
// reject it with ErrFigureNotSupported.
type FigureArtifact struct {
	ID     string
	Render RenderSpec
	Plot   string
}

func (a *FigureArtifact) Kind() ArtifactKind { return KindFigure }
func (a *FigureArtifact) PlanID() string     { return a.ID }
func (a *FigureArtifact) Spec() RenderSpec   { return a.Render }
func (a *FigureArtifact) artifact()          {}
