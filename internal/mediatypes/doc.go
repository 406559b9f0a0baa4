// Package mediatypes provides shared type definitions and utilities for media
// file classification across the media-librarian application.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// Classification is purely extension-based:
//
//	kind := mediatypes.FileTypeOf(filename)
//
//	switch kind {
//	case mediatypes.FileTypeImage:
//	    // Handle image
//	case mediatypes.FileTypeVideo:
//	    // Handle video
//	case mediatypes.FileTypeOther:
//	    // Not part of the library
//	}
//
// The extension maps (ImageExtensions, VideoExtensions) can be used directly
// for format validation or iteration.
package mediatypes
