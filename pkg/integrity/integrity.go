//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package integrity computes content digests of files. Digests are used to
// decide whether an autosaved draft differs from the last saved copy; they
// are a divergence heuristic, not a security check.
package integrity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ChunkSize is the number of bytes read from a file per hash update.
const ChunkSize = 4096

// ErrIO indicates a file that is missing or cannot be read.
var ErrIO = errors.New("file unreadable")

// A Digest is a fixed-length content hash.
type Digest [blake2b.Size256]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// FileDigest streams the file at path through the hash.
func FileDigest(path string) (Digest, error) {
	var digest Digest
	f, err := os.Open(path)
	if err != nil {
		return digest, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return ReaderDigest(f)
}

// ReaderDigest hashes everything read from r.
func ReaderDigest(r io.Reader) (Digest, error) {
	var digest Digest
	h, err := blake2b.New256(nil)
	if err != nil {
		return digest, err
	}
	buffer := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			h.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return digest, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// ContentsEqual reports whether the files at a and b have the same digest.
func ContentsEqual(a, b string) (bool, error) {
	da, err := FileDigest(a)
	if err != nil {
		return false, err
	}
	db, err := FileDigest(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}
