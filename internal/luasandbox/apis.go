// SPDX-License-Identifier: Apache-2.0

package luasandbox

import (
	"fmt"
	"regexp"

	"github.com/barkvcs/bark/internal/gitinterface"
	lua "github.com/yuin/gopher-lua"
)

// API presents the interface for any API made available within the sandbox.
type API interface {
	GetName() string
	GetSignature() string
	GetHelp() string
	GetExamples() []string
}

// LuaAPI implements the API interface. This is used when the API is implemented
// as a Lua function.
type LuaAPI struct {
	Name           string
	Signature      string
	Help           string
	Examples       []string
	Implementation string
}

func (l *LuaAPI) GetName() string {
	return l.Name
}

func (l *LuaAPI) GetSignature() string {
	return l.Signature
}

func (l *LuaAPI) GetHelp() string {
	return l.Help
}

func (l *LuaAPI) GetExamples() []string {
	return l.Examples
}

// GoAPI implements the API interface. This is used when the API is implemented
// in Go.
type GoAPI struct {
	Name           string
	Signature      string
	Help           string
	Examples       []string
	Implementation lua.LGFunction
}

func (g *GoAPI) GetName() string {
	return g.Name
}

func (g *GoAPI) GetSignature() string {
	return g.Signature
}

func (g *GoAPI) GetHelp() string {
	return g.Help
}

func (g *GoAPI) GetExamples() []string {
	return g.Examples
}

func (l *LuaEnvironment) apiMatchRegex() API {
	return &GoAPI{
		Name:      "matchRegex",
		Signature: "matchRegex(pattern, text) -> matched",
		Help:      "Check if the regular expression pattern matches the provided text.",
		Implementation: func(s *lua.LState) int {
			pattern := s.ToString(1)
			text := s.ToString(2)
			regex, err := regexp.Compile(pattern)
			if err != nil {
				s.Push(lua.LString(fmt.Sprintf("Error: %s", err.Error())))
				return 1
			}
			matched := regex.MatchString(text)
			s.Push(lua.LBool(matched))
			return 1
		},
	}
}

func (l *LuaEnvironment) apiStrSplit() API {
	return &LuaAPI{
		Name:      "strSplit",
		Signature: "strSplit(str, sep) -> components",
		Help:      "Split string using provided separator. If a separator is not provided, then \"\\n\" is used by default.",
		Examples: []string{
			"strSplit(\"hello\\nworld\") -> [\"hello\", \"world\"]",
			"strSplit(\"hello\\nworld\", \"\\n\") -> [\"hello\", \"world\"]",
		},
		Implementation: `
		function strSplit(str, sep)
			if sep == nil then
				sep = "\n"
			end
			local components = {}
			for component in string.gmatch(str, "([^"..sep.."]+)") do
				table.insert(components, component)
			end
			return components
		end
		`,
	}
}

func (l *LuaEnvironment) apiGitReadBlob() API {
	return &GoAPI{
		Name:      "gitReadBlob",
		Signature: "gitReadBlob(blobID) -> blob",
		Help:      "Retrieve the bytes of the Git blob specified using its ID from the repository.",
		Examples: []string{
			"gitReadBlob(\"e7fca95377c9bad2418c5df7ab3bab5d652a5309\") -> \"Hello, world!\"",
		},
		Implementation: func(s *lua.LState) int {
			blobID := s.ToString(1)
			hash, err := gitinterface.NewHash(blobID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			blob, err := l.repository.ReadBlob(hash)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			s.Push(lua.LString(blob))
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitReadFile() API {
	return &GoAPI{
		Name:      "gitReadFile",
		Signature: "gitReadFile(treeID, path) -> contents",
		Help:      "Retrieve the bytes of the file at path within the tree identified by treeID.",
		Examples: []string{
			"gitReadFile(\"a1b2c3...\", \".bark/commit_rules.yaml\") -> \"rules: ...\"",
		},
		Implementation: func(s *lua.LState) int {
			treeID := s.ToString(1)
			path := s.ToString(2)

			hash, err := gitinterface.NewHash(treeID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			contents, err := l.repository.ReadFile(hash, path)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			s.Push(lua.LString(contents))
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitListFiles() API {
	return &GoAPI{
		Name:      "gitListFiles",
		Signature: "gitListFiles(treeID, glob) -> paths",
		Help:      "Retrieve a Lua table of file paths within the tree identified by treeID matching glob.",
		Examples: []string{
			"gitListFiles(\"a1b2c3...\", \".bark/.pubkeys/*.pub\") -> [\".bark/.pubkeys/alice.pub\"]",
		},
		Implementation: func(s *lua.LState) int {
			treeID := s.ToString(1)
			glob := s.ToString(2)

			hash, err := gitinterface.NewHash(treeID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			paths, err := l.repository.ListFiles(hash, glob)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			resultTable := s.NewTable()
			localIndex := 1
			for _, path := range paths.Contents() {
				resultTable.RawSetInt(localIndex, lua.LString(path))
				localIndex++
			}
			s.Push(resultTable)
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitFilesModified() API {
	return &GoAPI{
		Name:      "gitFilesModified",
		Signature: "gitFilesModified(commitID) -> paths",
		Help:      "Retrieve a Lua table of file paths changed between the commit's tree and its first parent's tree.",
		Examples: []string{
			"gitFilesModified(\"e7fca95377c9bad2418c5df7ab3bab5d652a5309\") -> [\"foo/bar\", \"foo/baz\"]",
		},
		Implementation: func(s *lua.LState) int {
			commitID := s.ToString(1)
			hash, err := gitinterface.NewHash(commitID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			parents, err := l.repository.GetCommitParentIDs(hash)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			var pathList []string
			if len(parents) == 0 {
				treeID, err := l.repository.GetCommitTreeID(hash)
				if err != nil {
					s.Push(lua.LString(err.Error()))
					return 1
				}
				files, err := l.repository.GetAllFilesInTree(treeID)
				if err != nil {
					s.Push(lua.LString(err.Error()))
					return 1
				}
				for path := range files {
					pathList = append(pathList, path)
				}
			} else {
				paths, err := l.repository.FilesModified(parents[0], hash)
				if err != nil {
					s.Push(lua.LString(err.Error()))
					return 1
				}
				pathList = paths.Contents()
			}

			resultTable := s.NewTable()
			localIndex := 1
			for _, path := range pathList {
				resultTable.RawSetInt(localIndex, lua.LString(path))
				localIndex++
			}
			s.Push(resultTable)
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitGetReference() API {
	return &GoAPI{
		Name:      "gitGetReference",
		Signature: "gitGetReference(ref) -> hash",
		Help:      "Retrieve the tip of the specified Git reference.",
		Examples: []string{
			"gitGetReference(\"refs/heads/main\") -> \"e7fca95377c9bad2418c5df7ab3bab5d652a5309\"",
		},
		Implementation: func(s *lua.LState) int {
			ref := s.ToString(1)

			hash, err := l.repository.GetReference(ref)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			s.Push(lua.LString(hash.String()))
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitGetCommitMessage() API {
	return &GoAPI{
		Name:      "gitGetCommitMessage",
		Signature: "gitGetCommitMessage(commitID) -> message",
		Help:      "Retrieve the message for the specified Git commit.",
		Examples: []string{
			"gitGetCommitMessage(\"e7fca95377c9bad2418c5df7ab3bab5d652a5309\") -> \"Commit message.\"",
		},
		Implementation: func(s *lua.LState) int {
			id := s.ToString(1)
			hash, err := gitinterface.NewHash(id)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			message, err := l.repository.GetCommitMessage(hash)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			s.Push(lua.LString(message))
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitGetCommitParentIDs() API {
	return &GoAPI{
		Name:      "gitGetCommitParentIDs",
		Signature: "gitGetCommitParentIDs(commitID) -> parentIDs",
		Help:      "Retrieve a Lua table of the parent commit IDs of the specified Git commit.",
		Examples: []string{
			"gitGetCommitParentIDs(\"e7fca95377c9bad2418c5df7ab3bab5d652a5309\") -> [\"c70885ffc33866dbdfe95d0e10efa6d77c77a43b\"]",
		},
		Implementation: func(s *lua.LState) int {
			id := s.ToString(1)
			hash, err := gitinterface.NewHash(id)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			parents, err := l.repository.GetCommitParentIDs(hash)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			resultTable := s.NewTable()
			localIndex := 1
			for _, parent := range parents {
				resultTable.RawSetInt(localIndex, lua.LString(parent.String()))
				localIndex++
			}
			s.Push(resultTable)
			return 1
		},
	}
}

func (l *LuaEnvironment) apiGitIsAncestor() API {
	return &GoAPI{
		Name:      "gitIsAncestor",
		Signature: "gitIsAncestor(ancestorID, descendantID) -> isAncestor",
		Help:      "Check if ancestorID is an ancestor of descendantID in the repository's commit graph.",
		Examples: []string{
			"gitIsAncestor(\"c70885ffc33866dbdfe95d0e10efa6d77c77a43b\", \"e7fca95377c9bad2418c5df7ab3bab5d652a5309\") -> true",
		},
		Implementation: func(s *lua.LState) int {
			ancestorID := s.ToString(1)
			descendantID := s.ToString(2)

			ancestorHash, err := gitinterface.NewHash(ancestorID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			descendantHash, err := gitinterface.NewHash(descendantID)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}

			isAncestor, err := l.repository.IsAncestor(ancestorHash, descendantHash)
			if err != nil {
				s.Push(lua.LString(err.Error()))
				return 1
			}
			s.Push(lua.LBool(isAncestor))
			return 1
		},
	}
}
