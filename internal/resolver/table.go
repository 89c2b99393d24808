package resolver

import "github.com/teamcutter/simple-extract/internal/domain"

func decompress(tool string) domain.Stage {
	return domain.Stage{Tool: tool, Args: []string{"-d", "-c", domain.InputPlaceholder}, WritesStdout: true}
}

var untarStdin = domain.Stage{Tool: "tar", Args: []string{"-xvf", "-"}, ReadsStdin: true}

func tarball(name string, suffixes []string, tool string) domain.ArchiveSpec {
	return domain.ArchiveSpec{
		Name:     name,
		Suffixes: suffixes,
		Stages:   []domain.Stage{decompress(tool), untarStdin},
	}
}

func single(name, suffix, tool string, args ...string) domain.ArchiveSpec {
	return domain.ArchiveSpec{
		Name:     name,
		Suffixes: []string{suffix},
		Stages:   []domain.Stage{{Tool: tool, Args: append(args, domain.InputPlaceholder)}},
	}
}

func compressed(name, suffix, tool string) domain.ArchiveSpec {
	return domain.ArchiveSpec{
		Name:     name,
		Suffixes: []string{suffix},
		Stages:   []domain.Stage{decompress(tool)},
	}
}

// builtin is ordered by family only; New sorts it by suffix length.
var builtin = []domain.ArchiveSpec{
	tarball("tar.gz", []string{".tar", ".gz"}, "gzip"),
	tarball("tgz", []string{".tgz"}, "gzip"),
	tarball("tar.bz2", []string{".tar", ".bz2"}, "bzip2"),
	tarball("tbz2", []string{".tbz2"}, "bzip2"),
	tarball("tbz", []string{".tbz"}, "bzip2"),
	tarball("tar.xz", []string{".tar", ".xz"}, "xz"),
	tarball("txz", []string{".txz"}, "xz"),
	tarball("tar.lzma", []string{".tar", ".lzma"}, "xz"),
	tarball("tar.zst", []string{".tar", ".zst"}, "zstd"),
	tarball("tzst", []string{".tzst"}, "zstd"),
	single("tar", ".tar", "tar", "-xvf"),
	{
		Name:     "rpm",
		Suffixes: []string{".rpm"},
		Stages: []domain.Stage{
			{Tool: "rpm2cpio", Args: []string{domain.InputPlaceholder}, WritesStdout: true},
			{Tool: "cpio", Args: []string{"-idmv"}, ReadsStdin: true},
		},
	},
	single("rar", ".rar", "unrar", "x", "-o+"),
	single("lzh", ".lzh", "lha", "xf"),
	single("lha", ".lha", "lha", "xf"),
	single("7z", ".7z", "7z", "x", "-y"),
	single("zip", ".zip", "unzip", "-o"),
	single("jar", ".jar", "unzip", "-o"),
	single("deb", ".deb", "ar", "x"),
	compressed("bz2", ".bz2", "bzip2"),
	compressed("gz", ".gz", "gzip"),
	compressed("Z", ".Z", "gzip"),
	compressed("xz", ".xz", "xz"),
	compressed("lzma", ".lzma", "xz"),
	compressed("zst", ".zst", "zstd"),
}
