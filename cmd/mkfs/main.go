package main

import (
	"fmt"
	"os"

	"github.com/hisahi/fat12"
	"github.com/spf13/afero"
)

// main formats a fresh 1.44 MB FAT12 image at the given path, optionally
// with a volume label as a second argument.
func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("usage: mkfs <image-path> [label]")
		os.Exit(1)
	}

	label := ""
	if len(args) > 1 {
		label = args[1]
	}

	img := fat12.NewBlankImage()
	vol, err := fat12.Format(img, label)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := vol.Image().Save(afero.NewOsFs(), args[0]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d bytes)\n", args[0], fat12.ImageSize)
}
