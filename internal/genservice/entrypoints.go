package genservice

import (
	"strings"

	"github.com/mercury-protocol/ceres/internal/core"
	"github.com/mercury-protocol/ceres/internal/patch"
)

// EntryTrigger identifies the generated main function in both programs.
const EntryTrigger = "fn main()"

// HostEntry replaces the host main body with a driver that prepares the
// input with hostlib, proves the guest and prints the committed CID.
func HostEntry(n core.Names) patch.BlockRewrite {
	return patch.BlockRewrite{
		Trigger: EntryTrigger,
		Body: []string{
			"    let args: Vec<String> = env::args().collect();",
			"    let data: Vec<u8> = hostlib::prepare(args);",
			"",
			"    let env = ExecutorEnv::builder().add_input(&to_vec(&data.as_slice()).unwrap()).build();",
			"",
			"    let mut exec = Executor::from_elf(env, " + n.ELF() + ").unwrap();",
			"",
			"    let session = exec.run().unwrap();",
			"    let receipt = session.prove().unwrap();",
			"    let cid: String = from_slice(&receipt.journal).unwrap();",
			`    println!("Verified data with CID: {}", cid);`,
			"}",
		},
		Insertions: []patch.Insertion{{
			Match: patch.AllOf(patch.HasPrefix("use "), patch.Contains(n.ELF()), patch.Contains(n.ID())),
			Lines: []string{"use std::env;", "mod hostlib;"},
		}},
	}
}

// HostMethodsImport is the structural target for the generated
// `use methods::{...}` line of the host.
func HostMethodsImport(n core.Names) patch.Target {
	return patch.Target{
		Name:    "host methods import",
		Match:   patch.AllOf(patch.HasPrefix("use "), patch.Contains("methods::")),
		Replace: patch.Literal("use " + n.MethodsIdent() + "::{" + n.ELF() + ", " + n.ID() + "};"),
	}
}

// GuestEntry replaces the guest main body with one that reads the input,
// runs guestlib and commits the CIDv1 of the data. The no_std attributes
// are dropped so guestlib can use std.
func GuestEntry() patch.BlockRewrite {
	return patch.BlockRewrite{
		Trigger: EntryTrigger,
		Body: []string{
			"    let data: Vec<u8> = env::read();",
			"    guestlib::verify(&data);",
			"",
			"    const RAW: u64 = 0x55;",
			"    let h = Code::Sha2_256.digest(&data);",
			"    let cid = Cid::new_v1(RAW, h);",
			"    env::commit(&cid.to_string());",
			"    return ();",
			"}",
		},
		Insertions: []patch.Insertion{
			{
				Match: patch.Contains("use risc0_zkvm::guest::env;"),
				Lines: []string{"use cid::multihash::{Code, MultihashDigest};", "use cid::Cid;"},
			},
			{
				Match: patch.Contains("risc0_zkvm::guest::entry!(main);"),
				Lines: []string{"mod guestlib;"},
			},
		},
		Drop: []patch.Matcher{patch.Contains("no_std")},
	}
}

// PackageName is the structural target for the `name` key of [package].
func PackageName(name string) patch.Target {
	return patch.Target{
		Name:    "package name",
		Within:  patch.Section("package"),
		Match:   keyIs("name"),
		Replace: patch.Literal(`name = "` + name + `"`),
	}
}

// MethodsDependency renames the host's dependency on the methods crate while
// keeping its path.
func MethodsDependency(n core.Names) patch.Target {
	return patch.Target{
		Name:   "methods dependency",
		Within: patch.Section("dependencies"),
		Match:  keyIs("methods"),
		Replace: func(old string) string {
			return strings.Replace(old, "methods", n.Methods, 1)
		},
	}
}

// keyIs matches a TOML key/value line whose bare key is key.
func keyIs(key string) patch.Matcher {
	return func(line string) bool {
		k, _, ok := strings.Cut(line, "=")
		return ok && strings.TrimSpace(k) == key
	}
}
