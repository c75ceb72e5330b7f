//go:build !shade_debug

package arena

const debugLeaks = false
