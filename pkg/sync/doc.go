/*
The sync package implements monorepo-agent's sync algorithm. It mirrors
submodules of a monorepo into sibling directories of the monorepo.

There are two locations per submodule:
 1. The source -- the submodule's content inside the monorepo, at the
    submodule's configured path relative to the monorepo root.
 2. The target -- a directory next to the monorepo root, named after the
    submodule. The target is derived data: it's created on demand, and files
    matched by the include rules that don't exist in the source are deleted
    from it. Excluded files in the target are left alone.

The byte copying is delegated to rsync. This package decides what rsync
should copy by converting each submodule's include and exclude rules into
rsync filter arguments, and is responsible for running rsync once per
submodule.

Submodules are synced one at a time. A submodule that can't be synced is
recorded in the Report and the remaining submodules are still synced.
*/
package sync
