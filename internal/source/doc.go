// Package source defines the remote-source contract the collector consumes
// and an HTTP gateway for Orthanc-style DICOM proxies. The proxy resolves
// study metadata, stages payloads from upstream modalities on demand, and
// serves anonymization server-side.
package source
