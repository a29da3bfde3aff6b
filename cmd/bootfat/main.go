package main

import (
	"fmt"
	"os"

	"github.com/aligator/bootfat"
	"github.com/spf13/afero"
)

const usage = `usage: bootfat <image> <command> [args]

commands:
  ls     [path]            list a directory
  read   <path>            print the file content to stdout
  write  <path> <hostfile> copy a host file onto the volume
  mkdir  <path>            create a directory
  exists <path>            check whether a file exists
`

// main is a small host-side tool to work with raw FAT32 image files.
func main() {
	args := os.Args[1:]
	if len(args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	image, err := os.OpenFile(args[0], os.O_RDWR, 0)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	defer image.Close()

	vol, err := bootfat.Mount(bootfat.NewSeekerDevice(image), 0)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := run(vol, args[1], args[2:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(vol *bootfat.Volume, command string, args []string) error {
	switch command {
	case "ls":
		root := ""
		if len(args) > 0 {
			root = args[0]
		}

		return afero.Walk(bootfat.NewFs(vol), root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			fmt.Println(path, info.IsDir(), info.Size(), info.ModTime())
			return nil
		})
	case "read":
		if len(args) != 1 {
			return fmt.Errorf("usage: read <path>")
		}

		data, err := vol.ReadFile(args[0])
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(data)
		return err
	case "write":
		if len(args) != 2 {
			return fmt.Errorf("usage: write <path> <hostfile>")
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		return vol.WriteFile(args[0], data)
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <path>")
		}

		return vol.Mkdir(args[0])
	case "exists":
		if len(args) != 1 {
			return fmt.Errorf("usage: exists <path>")
		}

		exists, err := vol.FileExists(args[0])
		if err != nil {
			return err
		}

		fmt.Println(exists)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
