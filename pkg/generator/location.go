package generator

import "math/big"

// Structural constants of the library geometry. Purely descriptive; the
// generator itself only depends on the numeric seed.
const (
	PagesPerVolume   = 410
	VolumesPerShelf  = 32
	ShelvesPerWall   = 5
	WallsPerHexagon  = 4
	pagesPerHexagon  = PagesPerVolume * VolumesPerShelf * ShelvesPerWall * WallsPerHexagon
)

// Location places an address within the library geometry: which hexagon,
// wall, shelf, volume, and page the address corresponds to when the
// address space is read as a linear page index.
type Location struct {
	// Hexagon is the hexagon index as a decimal string; it is unbounded
	// like the address space itself.
	Hexagon string
	Wall    int
	Shelf   int
	Volume  int
	Page    int
}

// Locate maps a parsed address to its library coordinates.
func Locate(seed *big.Int) Location {
	hexagon, rem := new(big.Int).DivMod(seed, big.NewInt(int64(pagesPerHexagon)), new(big.Int))
	idx := int(rem.Int64())

	pagesPerWall := PagesPerVolume * VolumesPerShelf * ShelvesPerWall
	pagesPerShelf := PagesPerVolume * VolumesPerShelf

	return Location{
		Hexagon: hexagon.String(),
		Wall:    idx / pagesPerWall,
		Shelf:   (idx % pagesPerWall) / pagesPerShelf,
		Volume:  (idx % pagesPerShelf) / PagesPerVolume,
		Page:    idx % PagesPerVolume,
	}
}
