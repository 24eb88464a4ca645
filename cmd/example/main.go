package main

import (
	"fmt"
	"os"

	"github.com/hisahi/fat12"
	"github.com/spf13/afero"
)

// main is an example program to play with fat12: it opens an image given
// on the command line, prints its label and a listing of the root, then
// dumps the first regular file it finds.
func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) == 0 {
		fmt.Println("Please provide an image filename.")
		os.Exit(1)
	}

	osFs := afero.NewOsFs()
	vol, err := fat12.Open(osFs, argsWithoutProg[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	label, err := vol.Label()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("Opened volume %q\n\n", label)

	entries, err := vol.List("/")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var firstFile string
	for _, e := range entries {
		fmt.Println("/"+e.Name, e.IsDir, e.Size, e.ModTime)
		if !e.IsDir && firstFile == "" {
			firstFile = e.Name
		}
	}

	if firstFile == "" {
		return
	}

	data, err := vol.ReadFile("/" + firstFile)
	if err != nil {
		fmt.Println("could not read the file", err)
		os.Exit(1)
	}
	fmt.Println("\n\nContent of " + firstFile + ":\n\n" + string(data))
}
