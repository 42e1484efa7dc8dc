package main

import (
	"fmt"
	"os"

	"github.com/mdraid5/raid5vol/internal/blockfile"
	"github.com/mdraid5/raid5vol/internal/raid"
	"github.com/spf13/cobra"
)

// openExisting opens paths as an already-initialized device set and
// assembles a Volume over it, returning everything the caller needs to
// drive the array and clean up afterward.
func openExisting(paths []string, sectors int) (*raid.Volume, *blockfile.Set, raid.Status, error) {
	set, err := blockfile.Open(paths, os.O_RDWR, 0o600)
	if err != nil {
		return nil, nil, raid.Stopped, err
	}

	desc := raid.Descriptor{Devices: len(paths), Sectors: sectors, Dev: set}
	v := raid.New()
	v.Logger = &log
	status := v.Start(desc)
	return v, set, status, nil
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Initialize fresh device files as a new RAID-5 array",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}
			if sectorsFlag <= 0 {
				return fmt.Errorf("--sectors is required and must be positive")
			}

			set, err := blockfile.Create(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			desc := raid.Descriptor{Devices: len(paths), Sectors: sectorsFlag, Dev: set}
			if !raid.Create(desc) {
				return fmt.Errorf("create: invalid geometry or device write failure")
			}

			log.Info().Int("devices", len(paths)).Int("sectors", sectorsFlag).Msg("array created")
			fmt.Printf("created array: %d devices, %d sectors, %d logical sectors capacity\n",
				len(paths), sectorsFlag, (len(paths)-1)*(sectorsFlag-2))
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Assemble the array and report its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}

			v, set, status, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			fmt.Println(status)
			if status == raid.Failed {
				if err := v.LastError(); err != nil {
					return err
				}
				return fmt.Errorf("array failed to assemble")
			}
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Assemble, then persist a clean-stop generation to every live device",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}

			v, set, _, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			fmt.Println(v.Stop())
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report array status without modifying any device",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}

			v, set, status, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			fmt.Printf("status: %s\n", status)
			fmt.Printf("size: %d logical sectors\n", v.Size())
			return nil
		},
	}
}

func newResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Rebuild a replaced device from its surviving peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}

			v, set, status, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			if status != raid.Degraded {
				fmt.Println(status)
				return nil
			}

			fmt.Println(v.Resync())
			return nil
		},
	}
}

func newReadCmd() *cobra.Command {
	var offset, count int
	var out string

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read logical sectors into a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}
			v, set, _, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			buf := make([]byte, count*raid.SectorSize)
			if !v.Read(offset, buf, count) {
				if err := v.LastError(); err != nil {
					return err
				}
				return fmt.Errorf("read failed at or before logical sector %d", offset)
			}

			if out == "-" || out == "" {
				_, err = os.Stdout.Write(buf)
				return err
			}
			return os.WriteFile(out, buf, 0o600)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "first logical sector")
	cmd.Flags().IntVar(&count, "count", 1, "number of logical sectors")
	cmd.Flags().StringVar(&out, "out", "-", "output file, or - for stdout")
	return cmd
}

func newWriteCmd() *cobra.Command {
	var offset, count int
	var in string

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write logical sectors from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return fmt.Errorf("--in is required")
			}
			paths, err := devicePaths()
			if err != nil {
				return err
			}
			v, set, _, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			want := count * raid.SectorSize
			if len(data) < want {
				return fmt.Errorf("input file has %d bytes, need %d for %d sectors", len(data), want, count)
			}

			if !v.Write(offset, data[:want], count) {
				if err := v.LastError(); err != nil {
					return err
				}
				return fmt.Errorf("write failed at or before logical sector %d", offset)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "first logical sector")
	cmd.Flags().IntVar(&count, "count", 1, "number of logical sectors")
	cmd.Flags().StringVar(&in, "in", "", "input file to source sector data from")
	return cmd
}
