// Package deps checks that the external binaries vidtriage shells out to are
// installed and capable of the fixed compression profile.
package deps
