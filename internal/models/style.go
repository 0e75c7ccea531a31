package models

// AllStyles names the synthetic counter row that tracks every public projection.
const AllStyles = "all-styles"

type StyleCounter struct {
	Style string
	Label string
	Count int
}

type Style struct {
	Name  string
	Label string
}

// DefaultStyles is the catalog seeded into style_counters by the first migration.
var DefaultStyles = []Style{
	{Name: "anime", Label: "Anime"},
	{Name: "cyberpunk", Label: "Cyberpunk"},
	{Name: "watercolor", Label: "Watercolor"},
	{Name: "oil-painting", Label: "Oil Painting"},
	{Name: "pixel-art", Label: "Pixel Art"},
	{Name: "photorealistic", Label: "Photorealistic"},
	{Name: "fantasy", Label: "Fantasy"},
	{Name: "sketch", Label: "Sketch"},
	{Name: "3d-render", Label: "3D Render"},
	{Name: "comic", Label: "Comic"},
}

// StyleLabel returns the catalog label for name, or name itself for styles
// outside the catalog.
func StyleLabel(name string) string {
	if name == AllStyles {
		return "All Styles"
	}
	for _, s := range DefaultStyles {
		if s.Name == name {
			return s.Label
		}
	}
	return name
}
