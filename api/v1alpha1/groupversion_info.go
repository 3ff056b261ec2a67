/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package v1alpha1 contains the configuration schema for gopher-doctor,
// API group gopherdoctor.dev, version v1alpha1.
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	// GroupVersion is the group version of the doctor configuration file.
	GroupVersion = schema.GroupVersion{Group: "gopherdoctor.dev", Version: "v1alpha1"}
)

// Kind is the only kind a configuration file may declare.
const Kind = "DoctorConfig"
