package fat12

import (
	"io"

	"github.com/hisahi/fat12/checkpoint"
	"github.com/spf13/afero"
)

// Image is a fixed ImageSize-byte mutable buffer addressed as TotalSectors
// logical sectors of BytesPerSector bytes each, the sector-addressable byte
// container a FAT12 floppy image is built out of. Image does not itself
// understand FAT semantics; it only knows how to read and write sectors and
// to persist itself through an afero.Fs.
type Image struct {
	data [ImageSize]byte
}

// NewBlankImage returns a zero-filled image of the correct size, ready to be
// formatted.
func NewBlankImage() *Image {
	return &Image{}
}

// LoadImage reads a floppy image from name using fs. It fails with BadImage
// if the file is not exactly ImageSize bytes long.
func LoadImage(fs afero.Fs, name string) (*Image, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, checkpoint.Wrap(err, newErrf(KindBadImage, name, "could not open image"))
	}
	defer f.Close()
	return readImage(f, name)
}

// ReadImage reads a floppy image from an io.Reader. It fails with BadImage
// if the input is not exactly ImageSize bytes long.
func ReadImage(r io.Reader) (*Image, error) {
	return readImage(r, "")
}

func readImage(r io.Reader, name string) (*Image, error) {
	img := &Image{}
	n, err := io.ReadFull(r, img.data[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, checkpoint.Wrap(err, newErrf(KindBadImage, name, "could not read image"))
	}
	if n != ImageSize {
		return nil, newErrf(KindBadImage, name, "image is %d bytes, expected %d", n, ImageSize)
	}
	// Make sure the source had nothing left over.
	var extra [1]byte
	if m, _ := r.Read(extra[:]); m > 0 {
		return nil, newErrf(KindBadImage, name, "image is larger than %d bytes", ImageSize)
	}
	return img, nil
}

// Save writes the image to name using fs, overwriting any existing file.
func (img *Image) Save(fs afero.Fs, name string) error {
	f, err := fs.Create(name)
	if err != nil {
		return checkpoint.Wrap(err, newErrf(KindBadImage, name, "could not create image"))
	}
	defer f.Close()
	return img.WriteTo(f)
}

// WriteTo writes the full image contents to w.
func (img *Image) WriteTo(w io.Writer) error {
	_, err := w.Write(img.data[:])
	if err != nil {
		return checkpoint.Wrap(err, newErr(KindBadImage, "", "could not write image"))
	}
	return nil
}

// ReadSector returns a copy of the n-th logical sector (512 bytes).
func (img *Image) ReadSector(n int) ([]byte, error) {
	if n < 0 || n >= TotalSectors {
		return nil, newErrf(KindOutOfRange, "", "sector %d out of range [0, %d)", n, TotalSectors)
	}
	out := make([]byte, BytesPerSector)
	copy(out, img.data[n*BytesPerSector:(n+1)*BytesPerSector])
	return out, nil
}

// ReadSectors returns a copy of count sectors starting at n.
func (img *Image) ReadSectors(n, count int) ([]byte, error) {
	if n < 0 || count < 0 || n+count > TotalSectors {
		return nil, newErrf(KindOutOfRange, "", "sector range [%d, %d) out of range [0, %d)", n, n+count, TotalSectors)
	}
	out := make([]byte, count*BytesPerSector)
	copy(out, img.data[n*BytesPerSector:(n+count)*BytesPerSector])
	return out, nil
}

// WriteSector overwrites the n-th logical sector with data, which must be
// exactly 512 bytes.
func (img *Image) WriteSector(n int, data []byte) error {
	if n < 0 || n >= TotalSectors {
		return newErrf(KindOutOfRange, "", "sector %d out of range [0, %d)", n, TotalSectors)
	}
	if len(data) != BytesPerSector {
		return newErrf(KindBadSize, "", "sector data must be %d bytes, got %d", BytesPerSector, len(data))
	}
	copy(img.data[n*BytesPerSector:(n+1)*BytesPerSector], data)
	return nil
}

// WriteSectors overwrites count sectors starting at n with data, which must
// be exactly count*512 bytes.
func (img *Image) WriteSectors(n, count int, data []byte) error {
	if n < 0 || count < 0 || n+count > TotalSectors {
		return newErrf(KindOutOfRange, "", "sector range [%d, %d) out of range [0, %d)", n, n+count, TotalSectors)
	}
	if len(data) != count*BytesPerSector {
		return newErrf(KindBadSize, "", "sector data must be %d bytes, got %d", count*BytesPerSector, len(data))
	}
	copy(img.data[n*BytesPerSector:(n+count)*BytesPerSector], data)
	return nil
}
