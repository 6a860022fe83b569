package scaffold

import (
	"os"
	"path/filepath"

	"github.com/mercury-protocol/ceres/internal/fs"
)

// File is a scaffold file relative to the verifier directory.
type File struct {
	RelPath string
	Content string
}

// HostLibStub is the user's host-side data preparation module.
const HostLibStub = `// prepare turns the command line arguments into the bytes the guest verifies.
pub fn prepare(args: Vec<String>) -> Vec<u8> {
    // write your host code here
    let _ = args;
    Vec::new()
}
`

// GuestLibStub is the user's guest-side verification module.
const GuestLibStub = `// verify checks the data inside the zkVM.
pub fn verify(data: &Vec<u8>) -> bool {
    // write your guest code here
    !data.is_empty()
}
`

// MainStub runs hostlib and guestlib together outside the zkVM.
const MainStub = `mod guestlib;
mod hostlib;

use std::env;

fn main() {
    let args: Vec<String> = env::args().collect();

    // testing the host code
    let file_bytes: Vec<u8> = hostlib::prepare(args);

    // testing the guest code
    let guest_verification_result: bool = guestlib::verify(&file_bytes);
    println!("Guest verification result: {:?}", guest_verification_result);
}
`

// VerifierFiles returns the files of a fresh verifier directory.
func VerifierFiles(name, hostMarker, guestMarker string) []File {
	return []File{
		{RelPath: "Cargo.toml", Content: VerifierManifest(name, hostMarker, guestMarker)},
		{RelPath: "README.md", Content: ""},
		{RelPath: filepath.Join("src", "hostlib.rs"), Content: HostLibStub},
		{RelPath: filepath.Join("src", "guestlib.rs"), Content: GuestLibStub},
		{RelPath: filepath.Join("src", "main.rs"), Content: MainStub},
	}
}

// WriteResult lists what WriteFiles did, by relative path.
type WriteResult struct {
	Created []string
	Skipped []string
}

// WriteFiles creates files under root. Existing files are never overwritten.
func WriteFiles(fsys fs.FS, root string, files []File) (WriteResult, error) {
	var result WriteResult

	for _, f := range files {
		absPath := filepath.Join(root, f.RelPath)

		_, err := fsys.Stat(absPath)
		if err == nil {
			result.Skipped = append(result.Skipped, f.RelPath)
			continue
		}
		if !os.IsNotExist(err) {
			return result, err
		}

		if err := fsys.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return result, err
		}
		if err := fs.WriteFileAtomic(fsys, absPath, []byte(f.Content), 0644); err != nil {
			return result, err
		}
		result.Created = append(result.Created, f.RelPath)
	}

	return result, nil
}
