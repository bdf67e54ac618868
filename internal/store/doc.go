// Package store implements the local destination stores the collector writes
// into: a raw DICOM file directory, a derived-image directory, and a report
// directory. All three shard files into fixed-width subdirectories so a large
// collection does not pile millions of entries into one directory.
package store
