// Package render draws the world as an ASCII diagram: the arm over its
// location, each stack from the top down, a base line and location labels.
// Color is optional and decided per output.
package render
