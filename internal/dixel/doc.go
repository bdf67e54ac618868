// Package dixel defines the unit of work for the collector: one imaging
// study's DICOM tags, derived metadata, optional report, and optional raw
// payload. The name follows the convention of a "DICOM element" shortened to
// dixel.
package dixel
