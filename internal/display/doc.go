// Package display renders poll results for humans.
package display
