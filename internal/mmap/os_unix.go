//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int) (region, error) {
	return unixMap(int(f.Fd()), size, unix.PROT_READ, unix.MAP_SHARED)
}

func mapAnon(size int) (region, error) {
	return unixMap(-1, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unixMap(fd, size, prot, flags int) (region, error) {
	data, err := unix.Mmap(fd, 0, size, prot, flags)
	if err != nil {
		return region{}, err
	}
	return region{data: data, release: func() error { return unix.Munmap(data) }}, nil
}

var madvise = map[Advice]int{
	AdviseNormal:     unix.MADV_NORMAL,
	AdviseSequential: unix.MADV_SEQUENTIAL,
	AdviseRandom:     unix.MADV_RANDOM,
}

func advise(data []byte, advice Advice) error {
	flag, ok := madvise[advice]
	if !ok {
		flag = unix.MADV_NORMAL
	}
	// Some kernels reject hints on certain mappings.
	if err := unix.Madvise(data, flag); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
